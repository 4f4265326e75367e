package graph

// Action tells the Walker how to proceed after a visit.
type Action int

const (
	// Continue descends into the node's children.
	Continue Action = iota
	// SkipChildren moves on without descending.
	SkipChildren
	// Stop ends the walk.
	Stop
)

func (a Action) String() string {
	switch a {
	case SkipChildren:
		return "skip-children"
	case Stop:
		return "stop"
	default:
		return "continue"
	}
}

// Visitor is called for every node the Walker reaches. A visitor may also
// implement any of the category interfaces below; the Walker calls the
// matching one before VisitNode.
type Visitor interface {
	VisitNode(n *Node) Action
}

// PageVisitor handles Page nodes.
type PageVisitor interface {
	VisitPage(n *Node) Action
}

// ActionVisitor handles every kind of action node.
type ActionVisitor interface {
	VisitAction(n *Node) Action
}

// EmbeddedFileVisitor handles EmbeddedFile nodes.
type EmbeddedFileVisitor interface {
	VisitEmbeddedFile(n *Node) Action
}

// AnnotationVisitor handles Annotation nodes.
type AnnotationVisitor interface {
	VisitAnnotation(n *Node) Action
}

// FontVisitor handles Font nodes.
type FontVisitor interface {
	VisitFont(n *Node) Action
}

// ImageVisitor handles Image nodes.
type ImageVisitor interface {
	VisitImage(n *Node) Action
}

// BaseVisitor implements VisitNode by continuing. Embed it to implement
// only category handlers.
type BaseVisitor struct{}

// VisitNode continues the walk.
func (BaseVisitor) VisitNode(*Node) Action { return Continue }

// Walker performs a deterministic pre-order traversal along child edges.
// Each node is visited at most once, so cycles terminate.
type Walker struct {
	g *Graph
}

// NewWalker returns a walker over g.
func NewWalker(g *Graph) *Walker {
	return &Walker{g: g}
}

// Walk visits the nodes reachable from the root, children in edge order.
// Without a root every node is covered, starting new traversals from the
// lowest unvisited id. It returns the number of nodes visited.
func (w *Walker) Walk(v Visitor) int {
	visited := make([]bool, w.g.NodeCount())
	count := 0

	if root, ok := w.g.Root(); ok {
		count, _ = w.walkFrom(root, v, visited, count)
		return count
	}
	for i := range visited {
		if visited[i] {
			continue
		}
		var stopped bool
		count, stopped = w.walkFrom(NodeID(i), v, visited, count)
		if stopped {
			break
		}
	}
	return count
}

func (w *Walker) walkFrom(start NodeID, v Visitor, visited []bool, count int) (int, bool) {
	stack := []NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		count++

		n := w.g.nodes[id]
		switch dispatch(v, n) {
		case Stop:
			return count, true
		case SkipChildren:
			continue
		}

		children := w.g.Children(id)
		for i := len(children) - 1; i >= 0; i-- {
			if !visited[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
	return count, false
}

// dispatch calls the most specific handler, then VisitNode, and returns the
// stronger of the two actions.
func dispatch(v Visitor, n *Node) Action {
	specific := Continue
	switch {
	case n.Type == NodePage:
		if pv, ok := v.(PageVisitor); ok {
			specific = pv.VisitPage(n)
		}
	case n.Type.IsAction():
		if av, ok := v.(ActionVisitor); ok {
			specific = av.VisitAction(n)
		}
	case n.Type == NodeEmbeddedFile:
		if ev, ok := v.(EmbeddedFileVisitor); ok {
			specific = ev.VisitEmbeddedFile(n)
		}
	case n.Type == NodeAnnotation:
		if av, ok := v.(AnnotationVisitor); ok {
			specific = av.VisitAnnotation(n)
		}
	case n.Type == NodeFont:
		if fv, ok := v.(FontVisitor); ok {
			specific = fv.VisitFont(n)
		}
	case n.Type == NodeImage:
		if iv, ok := v.(ImageVisitor); ok {
			specific = iv.VisitImage(n)
		}
	}
	if specific == Stop {
		return Stop
	}
	if generic := v.VisitNode(n); generic > specific {
		return generic
	}
	return specific
}
