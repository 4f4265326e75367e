package pdfast

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/document"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/seifreed/PDF-AST-sub004/resolver"
	"github.com/sirupsen/logrus"
)

// headerContext is how far a header scan looks back into bytes that were
// already settled. An "N G obj" header is shorter than this.
const headerContext = 64

// ChunkProgress describes one chunk of a streaming parse.
type ChunkProgress struct {
	Index     int
	Offset    int64
	Size      int
	NodeCount int // graph nodes after the chunk's objects were added
	Elapsed   time.Duration
}

// IncrementalReport summarizes a streaming parse.
type IncrementalReport struct {
	Chunks  []ChunkProgress
	Bytes   int64
	Headers int // object headers found by the scan
	Graph   resolver.Report
	Elapsed time.Duration
}

type chunk struct {
	offset  int64
	size    int
	headers []core.ObjectID
}

// headerScanner finds object headers in a growing buffer. Offsets below
// settled have been scanned with enough context on both sides and are
// never reported again.
type headerScanner struct {
	settled int
}

// scan returns the headers in buf that became settled. A header is
// settled once headerContext bytes follow it, or at the end of input.
func (s *headerScanner) scan(buf []byte, eof bool) []core.ObjectID {
	limit := len(buf) - headerContext
	if eof {
		limit = len(buf)
	}
	if limit <= s.settled {
		return nil
	}
	from := s.settled - headerContext
	if from < 0 {
		from = 0
	}
	found, _ := core.ScanObjectHeaders(buf[from:], 0)
	var ids []core.ObjectID
	for _, h := range found {
		off := int64(from) + h.Offset
		if off < int64(s.settled) || off >= int64(limit) {
			continue
		}
		ids = append(ids, h.Ref.ID())
	}
	s.settled = limit
	return ids
}

// ParseStreaming parses src read in chunks of the configured size.
//
// While reading, each chunk is scanned for object headers. Once the input
// is complete the objects are added to the graph chunk by chunk, in the
// order their headers appear, and progress is reported after every chunk.
// The graph is then completed from the trailer as [Parse] does. Headers
// that do not match a live cross-reference entry are ignored.
func ParseStreaming(src io.Reader, opts ...Option) (*document.Document, IncrementalReport, error) {
	o := newOptions(opts)
	log := logging.For(o.logger(), "pdfast")
	start := time.Now()

	var (
		rep     IncrementalReport
		buf     []byte
		chunks  []*chunk
		scanner headerScanner
	)
	next := make([]byte, o.chunkSize)
	for {
		n, err := io.ReadFull(src, next)
		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return nil, rep, errors.Wrapf(err, "read chunk at offset %d", len(buf))
		}
		if n > 0 {
			if err := o.checkSize(int64(len(buf) + n)); err != nil {
				return nil, rep, err
			}
			chunks = append(chunks, &chunk{offset: int64(len(buf)), size: n})
			buf = append(buf, next[:n]...)
		}
		if ids := scanner.scan(buf, eof); len(ids) > 0 {
			c := chunks[len(chunks)-1]
			c.headers = append(c.headers, ids...)
			rep.Headers += len(ids)
		}
		if eof {
			break
		}
	}
	rep.Bytes = int64(len(buf))

	r, err := reader.NewReader(buf, o.readerOptions()...)
	if err != nil {
		return nil, rep, errors.Wrap(err, "read document structure")
	}
	b := resolver.NewBuilder(r)
	xref := r.XRefTable()
	for i, c := range chunks {
		for _, id := range c.headers {
			if _, ok := xref.Lookup(id); !ok {
				continue
			}
			if err := b.Seed(id); err != nil {
				return nil, rep, errors.Wrapf(err, "add object %s", id)
			}
		}
		p := ChunkProgress{
			Index:     i,
			Offset:    c.offset,
			Size:      c.size,
			NodeCount: b.Graph().NodeCount(),
			Elapsed:   time.Since(start),
		}
		rep.Chunks = append(rep.Chunks, p)
		log.WithFields(logrus.Fields{
			"chunk":  p.Index,
			"offset": p.Offset,
			"nodes":  p.NodeCount,
		}).Debug("chunk processed")
		if o.progress != nil {
			o.progress(p)
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, rep, errors.Wrap(err, "build graph")
	}
	rep.Graph = b.Report()
	doc := finish(r, g, rep.Graph, o)
	rep.Elapsed = time.Since(start)
	return doc, rep, nil
}
