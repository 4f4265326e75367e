package pdfast

import (
	"io"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/document"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/seifreed/PDF-AST-sub004/resolver"
	"github.com/sirupsen/logrus"
)

// Parse parses a complete PDF held in memory. The returned document has
// been analyzed; see [document.Document.Metadata].
func Parse(data []byte, opts ...Option) (*document.Document, error) {
	o := newOptions(opts)
	if err := o.checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	r, err := reader.NewReader(data, o.readerOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "read document structure")
	}
	b := resolver.NewBuilder(r)
	g, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build graph")
	}
	return finish(r, g, b.Report(), o), nil
}

// ParseReader reads rs to the end and parses it. The size is checked
// against the input bound before anything is read.
func ParseReader(rs io.ReadSeeker, opts ...Option) (*document.Document, error) {
	o := newOptions(opts)
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "determine input size")
	}
	if err := o.checkSize(size); err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind input")
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(rs, data); err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	return Parse(data, opts...)
}

func finish(r *reader.Reader, g *graph.Graph, rep resolver.Report, o options) *document.Document {
	doc := document.New(r, g)
	meta := document.Analyze(doc)
	logging.For(o.logger(), "pdfast").WithFields(logrus.Fields{
		"version":  meta.Version,
		"nodes":    rep.Nodes,
		"edges":    rep.Edges,
		"warnings": rep.Warnings,
		"repaired": meta.Repaired,
	}).Debug("document parsed")
	return doc
}
