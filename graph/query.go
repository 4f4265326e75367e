package graph

// Query selects nodes with predicates combined by logical AND. It is
// evaluated eagerly over all nodes.
type Query struct {
	g        *Graph
	types    map[NodeType]bool
	errors   bool
	maxDepth int
	preds    []func(*Node) bool
}

// NewQuery starts a query over g that matches every node.
func NewQuery(g *Graph) *Query {
	return &Query{g: g, maxDepth: -1}
}

// WithType keeps nodes of any of the given types. Repeated calls narrow
// the set further.
func (q *Query) WithType(types ...NodeType) *Query {
	set := make(map[NodeType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	if q.types == nil {
		q.types = set
		return q
	}
	for t := range q.types {
		if !set[t] {
			delete(q.types, t)
		}
	}
	return q
}

// WithErrors keeps nodes that carry at least one error.
func (q *Query) WithErrors() *Query {
	q.errors = true
	return q
}

// WithMaxDepth keeps nodes at most d child edges from the root. Nodes not
// reachable from the root never match.
func (q *Query) WithMaxDepth(d int) *Query {
	q.maxDepth = d
	return q
}

// Where adds an arbitrary predicate.
func (q *Query) Where(pred func(*Node) bool) *Query {
	q.preds = append(q.preds, pred)
	return q
}

// Execute returns the matching node ids in id order.
func (q *Query) Execute() []NodeID {
	var depths map[NodeID]int
	if q.maxDepth >= 0 {
		depths = q.g.Depths()
	}

	var ids []NodeID
	for _, n := range q.g.Nodes() {
		if q.types != nil && !q.types[n.Type] {
			continue
		}
		if q.errors && !n.HasErrors() {
			continue
		}
		if depths != nil {
			d, ok := depths[n.ID]
			if !ok || d > q.maxDepth {
				continue
			}
		}
		if !q.match(n) {
			continue
		}
		ids = append(ids, n.ID)
	}
	return ids
}

func (q *Query) match(n *Node) bool {
	for _, pred := range q.preds {
		if !pred(n) {
			return false
		}
	}
	return true
}
