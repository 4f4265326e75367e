package pages

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
)

// Tree is the flattened page tree of a document graph. Pages are listed in
// /Kids order; a node reached twice is listed once and a cycle through
// /Kids ends the branch it was found in.
type Tree struct {
	g      *graph.Graph
	root   graph.NodeID
	pages  []*Page
	issues []string
}

// New locates the page tree root through the catalog's /Pages entry and
// flattens it. Each page node gets a "page_index" property.
func New(g *graph.Graph) (*Tree, error) {
	root, ok := findRoot(g)
	if !ok {
		return nil, errors.New("document has no page tree")
	}
	t := &Tree{g: g, root: root}
	t.load()
	for _, p := range t.pages {
		if n, ok := g.Node(p.node); ok {
			n.SetProperty("page_index", strconv.Itoa(p.index))
		}
	}
	return t, nil
}

func findRoot(g *graph.Graph) (graph.NodeID, bool) {
	for _, catalog := range g.FindNodesByType(graph.NodeCatalog) {
		for _, e := range g.OutEdges(catalog) {
			if e.Type == graph.EdgeChild && e.Key == "/Pages" {
				return e.To, true
			}
		}
	}
	// no catalog link: take the first /Pages node nothing else holds
	for _, id := range g.FindNodesByType(graph.NodePages) {
		held := false
		for _, p := range g.Parents(id) {
			if n, _ := g.Node(p); n.Type == graph.NodePages {
				held = true
				break
			}
		}
		if !held {
			return id, true
		}
	}
	return 0, false
}

type frame struct {
	id        graph.NodeID
	ancestors []core.Dict
}

func (t *Tree) load() {
	visited := make(map[graph.NodeID]bool)
	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] {
			t.issues = append(t.issues, "page tree node "+strconv.Itoa(int(f.id))+" is reached more than once")
			continue
		}
		visited[f.id] = true

		n, _ := t.g.Node(f.id)
		dict, ok := n.Dict()
		if !ok {
			t.issues = append(t.issues, "page tree node "+strconv.Itoa(int(f.id))+" is not a dictionary")
			continue
		}
		if !isIntermediate(n, dict) {
			t.pages = append(t.pages, &Page{
				g:         t.g,
				node:      f.id,
				index:     len(t.pages),
				dict:      dict,
				ancestors: f.ancestors,
			})
			continue
		}

		kids := t.kids(f.id)
		ancestors := append([]core.Dict{dict}, f.ancestors...)
		// reversed so the first kid is popped first
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], ancestors: ancestors})
		}
	}
}

func isIntermediate(n *graph.Node, d core.Dict) bool {
	switch n.Type {
	case graph.NodePages:
		return true
	case graph.NodePage:
		return false
	}
	return d.Has("Kids")
}

// kids returns the child nodes linked through /Kids in array order.
func (t *Tree) kids(id graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for _, e := range t.g.OutEdges(id) {
		if e.Type == graph.EdgeChild && strings.HasPrefix(e.Key, "/Kids[") {
			out = append(out, e.To)
		}
	}
	return out
}

// Root returns the node of the page tree root.
func (t *Tree) Root() graph.NodeID {
	return t.root
}

// Count returns the number of pages found by walking the tree.
func (t *Tree) Count() int {
	return len(t.pages)
}

// DeclaredCount returns the /Count entry of the tree root.
func (t *Tree) DeclaredCount() (int, bool) {
	n, _ := t.g.Node(t.root)
	d, ok := n.Dict()
	if !ok {
		return 0, false
	}
	c, ok := t.g.Resolve(d.Get("Count")).(core.Int)
	return int(c), ok
}

// Page returns the page at the given index (0-based).
func (t *Tree) Page(index int) (*Page, error) {
	if index < 0 || index >= len(t.pages) {
		return nil, errors.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}
	return t.pages[index], nil
}

// Pages returns all pages in document order.
func (t *Tree) Pages() []*Page {
	return t.pages
}

// Issues describes the structural problems met while walking the tree.
func (t *Tree) Issues() []string {
	return t.issues
}

// Page is a single page of the tree.
type Page struct {
	g         *graph.Graph
	node      graph.NodeID
	index     int
	dict      core.Dict
	ancestors []core.Dict // nearest first
}

// Node returns the graph node of the page.
func (p *Page) Node() graph.NodeID {
	return p.node
}

// Index returns the position of the page in the document.
func (p *Page) Index() int {
	return p.index
}

// Dict returns the page dictionary.
func (p *Page) Dict() core.Dict {
	return p.dict
}

// inherited looks up key on the page, then on its ancestors.
func (p *Page) inherited(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return p.g.Resolve(v)
	}
	for _, d := range p.ancestors {
		if v := d.Get(key); v != nil {
			return p.g.Resolve(v)
		}
	}
	return nil
}

// MediaBox returns the page media box [x1 y1 x2 y2]. It is inheritable.
func (p *Page) MediaBox() ([]float64, error) {
	return p.box("MediaBox")
}

// CropBox returns the page crop box, defaulting to the media box.
func (p *Page) CropBox() ([]float64, error) {
	if p.inherited("CropBox") == nil {
		return p.MediaBox()
	}
	return p.box("CropBox")
}

func (p *Page) box(name string) ([]float64, error) {
	v := p.inherited(name)
	if v == nil {
		return nil, errors.Errorf("%s not found", name)
	}
	arr, ok := v.(core.Array)
	if !ok {
		return nil, errors.Errorf("invalid %s type: %T", name, v)
	}
	if len(arr) != 4 {
		return nil, errors.Errorf("invalid %s length: %d (expected 4)", name, len(arr))
	}
	box := make([]float64, 4)
	for i, elem := range arr {
		switch n := p.g.Resolve(elem).(type) {
		case core.Int:
			box[i] = float64(n)
		case core.Real:
			box[i] = float64(n)
		default:
			return nil, errors.Errorf("invalid %s element type: %T", name, elem)
		}
	}
	return box, nil
}

// Width returns the page width from the media box.
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height from the media box.
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}

// Resources returns the page resources dictionary. It is inheritable.
func (p *Page) Resources() (core.Dict, error) {
	v := p.inherited("Resources")
	if v == nil {
		return nil, errors.New("resources not found")
	}
	d, ok := v.(core.Dict)
	if !ok {
		return nil, errors.Errorf("invalid Resources type: %T", v)
	}
	return d, nil
}

// Rotate returns the page rotation normalized to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	r, ok := p.inherited("Rotate").(core.Int)
	if !ok || r%90 != 0 {
		return 0
	}
	return (int(r)%360 + 360) % 360
}

// Contents returns the nodes of the page content streams in order.
func (p *Page) Contents() []graph.NodeID {
	return p.linked("/Contents")
}

// Annotations returns the nodes of the page annotations in order.
func (p *Page) Annotations() []graph.NodeID {
	return p.linked("/Annots")
}

func (p *Page) linked(key string) []graph.NodeID {
	var out []graph.NodeID
	for _, e := range p.g.OutEdges(p.node) {
		if e.Type == graph.EdgeChild && (e.Key == key || strings.HasPrefix(e.Key, key+"[")) {
			out = append(out, e.To)
		}
	}
	return out
}
