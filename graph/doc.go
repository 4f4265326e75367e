// Package graph holds the typed document graph built from a PDF.
//
// A [Graph] is an arena of [Node] values addressed by dense [NodeID]s plus
// a list of [Edge]s. Child edges are resolved references from a container
// to its content; back-reference edges record /Parent style links and are
// not followed by traversals. The graph never assumes a tree:
// [Graph.IsCyclic] reports child-edge cycles and every traversal keeps a
// visited set.
//
// # Visiting
//
// [Walker] performs a pre-order walk from the root. A visitor implements
// [Visitor] plus any of the category interfaces it cares about:
//
//	type pageCounter struct {
//	    graph.BaseVisitor
//	    pages int
//	}
//
//	func (c *pageCounter) VisitPage(*graph.Node) graph.Action {
//	    c.pages++
//	    return graph.SkipChildren
//	}
//
// # Querying
//
//	ids := graph.NewQuery(g).WithType(graph.NodePage).WithMaxDepth(4).Execute()
package graph
