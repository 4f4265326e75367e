package document

import (
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/pages"
	"github.com/seifreed/PDF-AST-sub004/reader"
)

// Document is a parsed PDF: the object graph together with the
// cross-reference state it was built from. Once returned by a parse it is
// read-only and safe for concurrent readers.
type Document struct {
	r *reader.Reader
	g *graph.Graph

	catalog    graph.NodeID
	hasCatalog bool
	info       graph.NodeID
	hasInfo    bool

	pages    *pages.Tree
	metadata Metadata
}

// New wraps a graph built from r. The catalog and Info nodes are the
// targets of the root's /Root and /Info edges.
func New(r *reader.Reader, g *graph.Graph) *Document {
	d := &Document{r: r, g: g}
	if root, ok := g.Root(); ok {
		for _, e := range g.OutEdges(root) {
			switch e.Key {
			case "/Root":
				d.catalog, d.hasCatalog = e.To, true
			case "/Info":
				d.info, d.hasInfo = e.To, true
			}
		}
	}
	if !d.hasCatalog {
		if ids := g.FindNodesByType(graph.NodeCatalog); len(ids) > 0 {
			d.catalog, d.hasCatalog = ids[0], true
		}
	}
	return d
}

// Version returns the effective PDF version, such as "1.7", or "" when the
// file has no readable header.
func (d *Document) Version() string {
	return d.r.Version().String()
}

// Catalog returns the catalog node.
func (d *Document) Catalog() (graph.NodeID, bool) {
	return d.catalog, d.hasCatalog
}

// Info returns the document information dictionary node.
func (d *Document) Info() (graph.NodeID, bool) {
	return d.info, d.hasInfo
}

// Trailer returns the merged trailer dictionary.
func (d *Document) Trailer() core.Dict {
	return d.r.Trailer()
}

// XRef returns the merged cross-reference table.
func (d *Document) XRef() *core.XRefTable {
	return d.r.XRefTable()
}

// Entries returns the effective cross-reference entry of every live
// object.
func (d *Document) Entries() map[core.ObjectID]*core.XRefEntry {
	table := d.r.XRefTable()
	out := make(map[core.ObjectID]*core.XRefEntry, table.Size())
	for _, id := range table.IDs() {
		e, _ := table.Get(int(id.Number))
		out[id] = e
	}
	return out
}

// Revisions returns the revision chain, newest first.
func (d *Document) Revisions() []*core.Revision {
	return d.r.Revisions()
}

// Graph returns the document graph.
func (d *Document) Graph() *graph.Graph {
	return d.g
}

// Reader returns the reader the graph was built from.
func (d *Document) Reader() *reader.Reader {
	return d.r
}

// Metadata returns the snapshot computed by Analyze. It is the zero value
// until Analyze has run.
func (d *Document) Metadata() Metadata {
	return d.metadata
}

// Pages returns the page tree found by Analyze, or nil.
func (d *Document) Pages() *pages.Tree {
	return d.pages
}

// Linearized reports whether the file starts with a linearization
// dictionary.
func (d *Document) Linearized() bool {
	return d.r.Linearization() != nil
}

// Repaired reports whether the cross-reference table was rebuilt by
// scanning.
func (d *Document) Repaired() bool {
	return d.r.Repaired()
}

// Issues returns the defects that belong to the file rather than to a
// single object.
func (d *Document) Issues() []*core.Error {
	return d.r.Issues()
}
