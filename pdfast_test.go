package pdfast

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/document"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/internal/pdftest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeSummary struct {
	Type     graph.NodeType
	Object   core.ObjectID
	Offset   int64
	Props    map[string]string
	Warnings int
}

type edgeSummary struct {
	From, To core.ObjectID
	Type     graph.EdgeType
	Key      string
}

// summarize lists nodes in id order and edges by object id, leaving out
// node ids so graphs built in different orders can be compared.
func summarize(g *graph.Graph) ([]nodeSummary, []edgeSummary) {
	var nodes []nodeSummary
	for _, n := range g.Nodes() {
		nodes = append(nodes, nodeSummary{
			Type:     n.Type,
			Object:   n.Metadata.Object,
			Offset:   n.Metadata.Offset,
			Props:    n.Metadata.Properties,
			Warnings: len(n.Metadata.Warnings),
		})
	}
	object := func(id graph.NodeID) core.ObjectID {
		n, _ := g.Node(id)
		return n.Metadata.Object
	}
	var edges []edgeSummary
	for _, e := range g.Edges() {
		edges = append(edges, edgeSummary{From: object(e.From), To: object(e.To), Type: e.Type, Key: e.Key})
	}
	return nodes, edges
}

func TestParseMinimal(t *testing.T) {
	doc, err := Parse(pdftest.Minimal())
	require.NoError(t, err)

	m := doc.Metadata()
	assert.Equal(t, "1.7", m.Version)
	assert.Equal(t, 1, m.PageCount)
	assert.Equal(t, "Minimal", m.Info["Title"])
	assert.Equal(t, 6, doc.Graph().NodeCount())
	assert.False(t, doc.Repaired())
	assert.Empty(t, doc.Issues())
}

func TestParseIdempotent(t *testing.T) {
	data := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R /OpenAction 4 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Type /Page /Parent 2 0 R /Annots [<< /Subtype /Link /A << /S /URI /URI (https://example.com) >> >>] >>").
		Object(4, "<< /S /JavaScript /JS (this.print\\(\\)) /Next 9 0 R >>").
		XRefTable("/Root 1 0 R").
		Bytes()

	first, err := Parse(data)
	require.NoError(t, err)
	second, err := Parse(data)
	require.NoError(t, err)

	n1, e1 := summarize(first.Graph())
	n2, e2 := summarize(second.Graph())
	if diff := cmp.Diff(n1, n2); diff != "" {
		t.Errorf("nodes differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(e1, e2); diff != "" {
		t.Errorf("edges differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Metadata(), second.Metadata())
}

func TestParseModes(t *testing.T) {
	b := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Type /Page /Parent 2 0 R >>").
		XRefTable("/Root 1 0 R")
	broken := bytes.Replace(b.Bytes(),
		[]byte(fmt.Sprintf("startxref\n%d", b.XRefOffsets()[0])), []byte("startxref\n999999"), 1)

	dangling := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R /Outlines 7 0 R >>").
		Object(2, "<< /Type /Pages /Kids [] /Count 0 >>").
		XRefTable("/Root 1 0 R").
		Bytes()

	deep := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R /Outlines 3 0 R >>").
		Object(2, "<< /Type /Pages /Kids [] /Count 0 >>").
		Object(3, strings.Repeat("<< /A ", 20)+"1 "+strings.Repeat(">> ", 20)).
		XRefTable("/Root 1 0 R").
		Bytes()
	nesting := WithLimits(core.Limits{MaxDepth: 10})

	tests := []struct {
		name     string
		data     []byte
		opts     []Option
		wantErr  bool
		wantKind core.ErrorKind
	}{
		{"broken startxref tolerant", broken, nil, false, 0},
		{"broken startxref strict", broken, []Option{WithStrict()}, true, 0},
		{"dangling tolerant", dangling, []Option{WithStrict(), WithTolerant()}, false, 0},
		{"dangling strict", dangling, []Option{WithStrict()}, true, core.ReferenceError},
		{"nesting limit tolerant", deep, []Option{nesting}, false, 0},
		{"nesting limit strict", deep, []Option{nesting, WithStrict()}, true, core.ResourceLimitExceeded},
		{"input too large", dangling, []Option{WithMaxInputSize(16)}, true, core.ResourceLimitExceeded},
		{"object limit", dangling, []Option{WithLimits(core.Limits{MaxObjects: 1})}, true, core.ResourceLimitExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.data, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, doc)
				if tt.wantKind != 0 {
					assert.Equal(t, tt.wantKind, core.KindOf(err))
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc)
		})
	}
}

func TestParseRepaired(t *testing.T) {
	b := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Type /Page /Parent 2 0 R >>").
		XRefTable("/Root 1 0 R")
	data := bytes.Replace(b.Bytes(),
		[]byte(fmt.Sprintf("startxref\n%d", b.XRefOffsets()[0])), []byte("startxref\n999999"), 1)

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, doc.Repaired())
	assert.NotEmpty(t, doc.Issues())

	m := doc.Metadata()
	assert.True(t, m.Repaired)
	assert.Equal(t, 1, m.PageCount)
	page, ok := doc.Graph().NodeByObject(core.ObjectID{Number: 3})
	require.True(t, ok)
	n, _ := doc.Graph().Node(page)
	assert.Equal(t, graph.NodePage, n.Type)
	assert.Equal(t, b.Offset(3), n.Metadata.Offset)
}

func TestParseReader(t *testing.T) {
	data := pdftest.Minimal()

	doc, err := ParseReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Metadata().PageCount)

	_, err = ParseReader(bytes.NewReader(data), WithMaxInputSize(int64(len(data)-1)))
	assert.True(t, core.IsKind(err, core.ResourceLimitExceeded))

	doc, err = ParseReader(bytes.NewReader(data), WithMaxInputSize(0))
	require.NoError(t, err)
	assert.Equal(t, document.XMPAbsent, doc.Metadata().XMP)
}

func TestParseLogging(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	_, err := Parse(pdftest.Minimal(), WithLogger(log))
	require.NoError(t, err)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "document parsed" {
			found = true
			assert.Equal(t, "pdfast", e.Data["component"])
			assert.Equal(t, 6, e.Data["nodes"])
		}
	}
	assert.True(t, found)
}
