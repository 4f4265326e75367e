package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/sirupsen/logrus"
)

// Report summarizes a graph build.
type Report struct {
	Nodes    int
	Edges    int
	Objects  int // nodes built from indirect objects
	Orphans  int // objects not reachable from the trailer
	Dangling int // references to missing, free or mismatched objects
	Warnings int
	Errors   int
	Cyclic   bool
}

type task struct {
	id    graph.NodeID
	depth int
}

// Builder turns the objects of a Reader into a graph.
//
// References are followed breadth first from the trailer. Every indirect
// object becomes at most one node; a second reference to it becomes a
// second edge. Objects no reference reaches are added afterwards so the
// graph holds a node for every live cross-reference entry. Streams are
// never decoded here.
type Builder struct {
	r      *reader.Reader
	mode   core.Mode
	limits core.Limits
	log    logrus.FieldLogger

	g        *graph.Graph
	queue    []task
	expanded map[graph.NodeID]bool
	dangling int
	orphans  int
	built    bool
}

// NewBuilder returns a builder over r. Mode, limits and logger default to
// the reader's.
func NewBuilder(r *reader.Reader, opts ...Option) *Builder {
	b := &Builder{
		r:        r,
		mode:     r.Mode(),
		limits:   r.Limits(),
		log:      r.Logger(),
		g:        graph.New(),
		expanded: make(map[graph.NodeID]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logging.For(b.log, "resolver")
	return b
}

// Graph returns the graph under construction.
func (b *Builder) Graph() *graph.Graph {
	return b.g
}

// Seed creates the node for object id ahead of the build, so that node
// ids follow the order objects are discovered in. Seeding an object that
// already has a node does nothing. Dangling objects are skipped in
// tolerant mode.
func (b *Builder) Seed(id core.ObjectID) error {
	if _, ok := b.g.NodeByObject(id); ok {
		return nil
	}
	_, err := b.objectNode(id, Context{})
	return err
}

// Build expands the graph from the trailer and returns it. On a strict
// mode failure or a resource limit the error is returned with no graph.
func (b *Builder) Build() (*graph.Graph, error) {
	if b.built {
		return b.g, nil
	}
	if err := b.build(); err != nil {
		return nil, err
	}
	b.built = true
	rep := b.Report()
	b.log.WithFields(logrus.Fields{
		"nodes":    rep.Nodes,
		"edges":    rep.Edges,
		"orphans":  rep.Orphans,
		"dangling": rep.Dangling,
	}).Debug("graph built")
	return b.g, nil
}

func (b *Builder) build() error {
	root, err := b.newNode(graph.NodeRoot, b.r.Trailer())
	if err != nil {
		return err
	}
	b.g.SetRoot(root)
	b.queue = append(b.queue, task{id: root})
	if err := b.drain(); err != nil {
		return err
	}

	for _, id := range b.r.XRefTable().IDs() {
		if _, ok := b.g.NodeByObject(id); ok {
			continue
		}
		nid, err := b.objectNode(id, Context{})
		if err != nil {
			return err
		}
		if nid < 0 {
			continue
		}
		b.orphans++
		b.queue = append(b.queue, task{id: nid})
		if err := b.drain(); err != nil {
			return err
		}
	}

	// seeded objects the table does not list
	for _, n := range b.g.Nodes() {
		if !b.expanded[n.ID] {
			b.orphans++
			b.queue = append(b.queue, task{id: n.ID})
		}
	}
	return b.drain()
}

func (b *Builder) drain() error {
	for len(b.queue) > 0 {
		t := b.queue[0]
		b.queue = b.queue[1:]
		if b.expanded[t.id] {
			continue
		}
		if err := b.expand(t); err != nil {
			return err
		}
	}
	return nil
}

// expand links every reference held by the node's value.
func (b *Builder) expand(t task) error {
	b.expanded[t.id] = true
	n, _ := b.g.Node(t.id)
	var v core.Object = n.Value
	if s, ok := v.(*core.Stream); ok {
		v = s.Dict
	}
	return b.scan(t, n, v, "", "")
}

func (b *Builder) scan(t task, owner *graph.Node, v core.Object, key, path string) error {
	switch v := v.(type) {
	case core.IndirectRef:
		return b.link(t, owner, v, Context{Key: key, Path: path, Parent: owner.Type})
	case core.Dict:
		if path != "" {
			if done, err := b.inline(t, owner, v, Context{Key: key, Path: path, Parent: owner.Type}); done {
				return err
			}
		}
		for _, k := range v.Keys() {
			if err := b.scan(t, owner, v[k], k, path+"/"+k); err != nil {
				return err
			}
		}
	case core.Array:
		if path != "" {
			if done, err := b.inline(t, owner, v, Context{Key: key, Path: path, Parent: owner.Type}); done {
				return err
			}
		}
		for i, elem := range v {
			if err := b.scan(t, owner, elem, key, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// inline gives a direct value of a significant type its own node.
func (b *Builder) inline(t task, owner *graph.Node, v core.Object, ctx Context) (bool, error) {
	typ := Classify(v, ctx)
	if !significant(typ) {
		return false, nil
	}
	for _, e := range b.g.OutEdges(owner.ID) {
		if e.Key == ctx.Path {
			if child, ok := b.g.Node(e.To); ok && child.Metadata.Object == (core.ObjectID{}) {
				b.enqueue(child.ID, t.depth+1)
				return true, nil
			}
		}
	}
	if t.depth+1 > b.limits.MaxDepth {
		return true, b.tooDeep(owner, ctx)
	}

	id, err := b.newNode(typ, v)
	if err != nil {
		return true, err
	}
	n, _ := b.g.Node(id)
	n.SetProperty("key", ctx.Path)
	b.describe(n)
	if _, err := b.g.AddEdge(owner.ID, id, graph.EdgeChild, ctx.Path); err != nil {
		return true, err
	}
	b.enqueue(id, t.depth+1)
	return true, nil
}

func (b *Builder) link(t task, owner *graph.Node, ref core.IndirectRef, ctx Context) error {
	edge := graph.EdgeChild
	if backReference(ctx.Key) {
		edge = graph.EdgeBackReference
	}

	id := ref.ID()
	if nid, ok := b.g.NodeByObject(id); ok {
		n, _ := b.g.Node(nid)
		if generic(n.Type) {
			if typ := Classify(n.Value, ctx); significant(typ) {
				b.g.SetType(nid, typ)
				b.describe(n)
			}
		}
		if _, err := b.g.AddEdge(owner.ID, nid, edge, ctx.Path); err != nil {
			return err
		}
		b.enqueue(nid, t.depth+1)
		return nil
	}

	if !ref.Valid() {
		return b.danglingRef(owner, ctx, core.NewError(core.ReferenceError, core.DanglingReference, -1, "invalid reference %s", ref))
	}
	if edge == graph.EdgeChild && t.depth+1 > b.limits.MaxDepth {
		return b.tooDeep(owner, ctx)
	}

	nid, err := b.objectNode(id, ctx)
	if err != nil {
		return err
	}
	if nid < 0 {
		e := core.NewError(core.ReferenceError, core.DanglingReference, -1, "reference %s does not resolve", id)
		if _, rerr := b.r.ReadObject(id); rerr != nil {
			if ce, ok := core.AsError(rerr); ok {
				e = ce
			}
		}
		return b.danglingRef(owner, ctx, e)
	}
	if _, err := b.g.AddEdge(owner.ID, nid, edge, ctx.Path); err != nil {
		return err
	}
	b.enqueue(nid, t.depth+1)
	return nil
}

func (b *Builder) enqueue(id graph.NodeID, depth int) {
	if !b.expanded[id] {
		b.queue = append(b.queue, task{id: id, depth: depth})
	}
}

// objectNode reads object id and creates its node. It returns -1 with no
// error for a dangling object in tolerant mode. Other read failures,
// resource limits included, give a placeholder node carrying the error.
func (b *Builder) objectNode(id core.ObjectID, ctx Context) (graph.NodeID, error) {
	obj, err := b.r.ReadObject(id)
	if err != nil {
		ce, _ := core.AsError(err)
		if ce != nil && ce.Code == core.DanglingReference {
			if b.mode == core.Strict {
				return -1, err
			}
			return -1, nil
		}
		if b.mode == core.Strict {
			return -1, errors.Wrapf(err, "object %s", id)
		}
		if ce == nil {
			ce = core.NewError(core.StructuralError, core.UnknownParseError, -1, "%v", err)
		}
		if ce.Object == (core.ObjectID{}) {
			ce.Object = id
		}
		nid, nerr := b.newNode(graph.NodeUnknown, nil)
		if nerr != nil {
			return -1, nerr
		}
		b.g.BindObject(nid, id)
		n, _ := b.g.Node(nid)
		n.AddError(ce)
		n.SetProperty("object_number", strconv.Itoa(int(id.Number)))
		n.SetProperty("generation", strconv.Itoa(int(id.Generation)))
		logging.Issue(b.log, ce).Warn("object could not be read")
		return nid, nil
	}

	nid, err := b.newNode(Classify(obj.Object, ctx), obj.Object)
	if err != nil {
		return -1, err
	}
	b.g.BindObject(nid, id)
	n, _ := b.g.Node(nid)
	n.Metadata.Offset = obj.Offset
	n.Metadata.Size = obj.Size
	for _, issue := range obj.Issues {
		n.AddError(issue)
	}
	n.SetProperty("object_number", strconv.Itoa(int(id.Number)))
	n.SetProperty("generation", strconv.Itoa(int(id.Generation)))
	if e, ok := b.r.XRefTable().Get(int(id.Number)); ok && e.Type == core.XRefCompressed {
		n.SetProperty("compressed_in", strconv.Itoa(e.StreamNumber))
		n.SetProperty("index_in_stream", strconv.Itoa(e.Index))
	}
	b.describe(n)
	return nid, nil
}

func (b *Builder) newNode(typ graph.NodeType, v core.Object) (graph.NodeID, error) {
	if b.g.NodeCount() >= b.limits.MaxObjects {
		return -1, core.NewError(core.ResourceLimitExceeded, core.LimitExceeded, -1,
			"graph exceeds %d nodes", b.limits.MaxObjects)
	}
	return b.g.AddNode(typ, v), nil
}

// describe records the facts readable from the node's value.
func (b *Builder) describe(n *graph.Node) {
	if s, ok := n.Stream(); ok {
		n.SetProperty("stream_length", strconv.Itoa(len(s.Data)))
		if names := s.FilterNames(); len(names) > 0 {
			n.SetProperty("filters", strings.Join(names, ","))
		}
	}
	if n.Type.IsAction() {
		if d, ok := n.Dict(); ok {
			if s, ok := d.GetName("S"); ok {
				n.SetProperty("action_type", string(s))
			}
		}
	}
}

func (b *Builder) danglingRef(owner *graph.Node, ctx Context, e *core.Error) error {
	if b.mode == core.Strict {
		return errors.Wrapf(e, "resolving %s", ctx.Path)
	}
	msg := fmt.Sprintf("%s: %s", ctx.Path, e.Msg)
	if !hasWarning(owner, msg) {
		owner.AddWarning("%s", msg)
		b.dangling++
		logging.Issue(b.log, e).WithField("key", ctx.Path).Debug("dangling reference")
	}
	return nil
}

func (b *Builder) tooDeep(owner *graph.Node, ctx Context) error {
	e := core.NewError(core.ResourceLimitExceeded, core.LimitExceeded, -1,
		"%s exceeds reference depth %d", ctx.Path, b.limits.MaxDepth)
	e.Object = owner.Metadata.Object
	if b.mode == core.Strict {
		return e
	}
	msg := fmt.Sprintf("%s: not followed, depth limit %d", ctx.Path, b.limits.MaxDepth)
	if !hasWarning(owner, msg) {
		owner.AddWarning("%s", msg)
		owner.AddError(e)
		logging.Issue(b.log, e).Warn("reference depth limit")
	}
	return nil
}

func hasWarning(n *graph.Node, msg string) bool {
	for _, w := range n.Metadata.Warnings {
		if w == msg {
			return true
		}
	}
	return false
}

// Report summarizes the graph as built so far.
func (b *Builder) Report() Report {
	rep := Report{
		Nodes:    b.g.NodeCount(),
		Edges:    b.g.EdgeCount(),
		Orphans:  b.orphans,
		Dangling: b.dangling,
		Cyclic:   b.g.IsCyclic(),
	}
	for _, n := range b.g.Nodes() {
		if n.Metadata.Object != (core.ObjectID{}) {
			rep.Objects++
		}
		rep.Warnings += len(n.Metadata.Warnings)
		rep.Errors += len(n.Metadata.Errors)
	}
	return rep
}
