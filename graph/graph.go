package graph

import (
	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/core"
)

type edgeKey struct {
	from, to NodeID
	typ      EdgeType
}

// Graph is an arena of nodes addressed by NodeID plus an edge list. It may
// contain cycles; every traversal keeps a visited set.
//
// Construction is single-writer. Once built, a Graph may be read from any
// number of goroutines.
type Graph struct {
	nodes []*Node
	edges []Edge
	out   [][]int // edge indices by source
	in    [][]int // edge indices by target

	seen     map[edgeKey]bool
	byObject map[core.ObjectID]NodeID
	byType   map[NodeType][]NodeID

	root    NodeID
	hasRoot bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		seen:     make(map[edgeKey]bool),
		byObject: make(map[core.ObjectID]NodeID),
		byType:   make(map[NodeType][]NodeID),
	}
}

// AddNode creates a node and returns its id.
func (g *Graph) AddNode(typ NodeType, value core.Object) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{
		ID:       id,
		Type:     typ,
		Value:    value,
		Metadata: NodeMetadata{Offset: -1},
	})
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.byType[typ] = append(g.byType[typ], id)
	return id
}

// BindObject records that node id was built from indirect object obj.
func (g *Graph) BindObject(id NodeID, obj core.ObjectID) {
	if n, ok := g.Node(id); ok {
		n.Metadata.Object = obj
		g.byObject[obj] = id
	}
}

// SetType changes a node's type.
func (g *Graph) SetType(id NodeID, typ NodeType) {
	n, ok := g.Node(id)
	if !ok || n.Type == typ {
		return
	}
	ids := g.byType[n.Type]
	for i, other := range ids {
		if other == id {
			g.byType[n.Type] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	n.Type = typ
	g.byType[typ] = insertSorted(g.byType[typ], id)
}

func insertSorted(ids []NodeID, id NodeID) []NodeID {
	i := len(ids)
	for i > 0 && ids[i-1] > id {
		i--
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// AddEdge links two nodes. A second edge with the same endpoints and type
// is ignored and reported as false.
func (g *Graph) AddEdge(from, to NodeID, typ EdgeType, key string) (bool, error) {
	if !g.valid(from) || !g.valid(to) {
		return false, errors.Errorf("edge %d -> %d: node out of range [0, %d)", from, to, len(g.nodes))
	}
	k := edgeKey{from, to, typ}
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{From: from, To: to, Type: typ, Key: key})
	g.out[from] = append(g.out[from], idx)
	g.in[to] = append(g.in[to], idx)
	return true, nil
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// SetRoot marks the traversal root.
func (g *Graph) SetRoot(id NodeID) {
	if g.valid(id) {
		g.root = id
		g.hasRoot = true
	}
}

// Root returns the traversal root.
func (g *Graph) Root() (NodeID, bool) {
	return g.root, g.hasRoot
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	if !g.valid(id) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns every node in id order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns every edge in creation order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// OutEdges returns the edges leaving id in creation order.
func (g *Graph) OutEdges(id NodeID) []Edge {
	if !g.valid(id) {
		return nil
	}
	out := make([]Edge, len(g.out[id]))
	for i, idx := range g.out[id] {
		out[i] = g.edges[idx]
	}
	return out
}

// InEdges returns the edges entering id in creation order.
func (g *Graph) InEdges(id NodeID) []Edge {
	if !g.valid(id) {
		return nil
	}
	in := make([]Edge, len(g.in[id]))
	for i, idx := range g.in[id] {
		in[i] = g.edges[idx]
	}
	return in
}

// Children returns the targets of the child edges leaving id.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	var ids []NodeID
	for _, idx := range g.out[id] {
		if e := g.edges[idx]; e.Type == EdgeChild {
			ids = append(ids, e.To)
		}
	}
	return ids
}

// Parents returns the sources of the child edges entering id.
func (g *Graph) Parents(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	var ids []NodeID
	for _, idx := range g.in[id] {
		if e := g.edges[idx]; e.Type == EdgeChild {
			ids = append(ids, e.From)
		}
	}
	return ids
}

// FindNodesByType returns the ids of all nodes of type t in id order.
func (g *Graph) FindNodesByType(t NodeType) []NodeID {
	return append([]NodeID(nil), g.byType[t]...)
}

// NodeByObject returns the node built from indirect object id.
func (g *Graph) NodeByObject(id core.ObjectID) (NodeID, bool) {
	n, ok := g.byObject[id]
	return n, ok
}

// IsCyclic reports whether the child edges contain a cycle.
func (g *Graph) IsCyclic() bool {
	const (
		white = iota
		grey
		black
	)
	color := make([]byte, len(g.nodes))
	type frame struct {
		id   NodeID
		next int
	}

	for start := range g.nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: NodeID(start)}}
		color[start] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(g.out[top.id]) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			e := g.edges[g.out[top.id][top.next]]
			top.next++
			if e.Type != EdgeChild {
				continue
			}
			switch color[e.To] {
			case grey:
				return true
			case white:
				color[e.To] = grey
				stack = append(stack, frame{id: e.To})
			}
		}
	}
	return false
}

// Depths returns the child-edge distance of every node reachable from the
// root. It is empty when there is no root.
func (g *Graph) Depths() map[NodeID]int {
	depths := make(map[NodeID]int)
	if !g.hasRoot {
		return depths
	}
	depths[g.root] = 0
	queue := []NodeID{g.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range g.Children(id) {
			if _, ok := depths[child]; !ok {
				depths[child] = depths[id] + 1
				queue = append(queue, child)
			}
		}
	}
	return depths
}

// ReachableFrom returns the nodes reachable from id along child edges,
// including id, in breadth-first order.
func (g *Graph) ReachableFrom(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	visited := make([]bool, len(g.nodes))
	visited[id] = true
	order := []NodeID{id}
	for i := 0; i < len(order); i++ {
		for _, child := range g.Children(order[i]) {
			if !visited[child] {
				visited[child] = true
				order = append(order, child)
			}
		}
	}
	return order
}

// Resolve returns the value of the node built from obj when obj is an
// indirect reference, nil when no node was built for it, and obj itself
// otherwise.
func (g *Graph) Resolve(obj core.Object) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj
	}
	id, ok := g.byObject[ref.ID()]
	if !ok {
		return nil
	}
	return g.nodes[id].Value
}
