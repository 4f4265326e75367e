package pages

import (
	"testing"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/internal/pdftest"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/seifreed/PDF-AST-sub004/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, data []byte) *graph.Graph {
	t.Helper()
	r, err := reader.NewReader(data)
	require.NoError(t, err)
	g, err := resolver.NewBuilder(r).Build()
	require.NoError(t, err)
	return g
}

func objectNode(t *testing.T, g *graph.Graph, num uint32) graph.NodeID {
	t.Helper()
	id, ok := g.NodeByObject(core.ObjectID{Number: num})
	require.True(t, ok)
	return id
}

func nestedTree() []byte {
	return pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 3 /MediaBox [0 0 612 792] /Rotate 90 /Resources << /Font << >> >> >>").
		Object(3, "<< /Type /Page /Parent 2 0 R /Contents 6 0 R >>").
		Object(4, "<< /Type /Pages /Parent 2 0 R /Kids [5 0 R] /Count 1 /MediaBox [0 0 100 200.5] >>").
		Object(5, "<< /Type /Page /Parent 4 0 R /Rotate -90 /CropBox [10 10 90 190] /Contents [6 0 R 7 0 R] >>").
		Stream(6, "", []byte("q Q")).
		Stream(7, "", []byte("BT ET")).
		XRefTable("/Root 1 0 R").
		Bytes()
}

func TestTreeNested(t *testing.T) {
	g := buildGraph(t, nestedTree())
	tree, err := New(g)
	require.NoError(t, err)

	assert.Equal(t, objectNode(t, g, 2), tree.Root())
	require.Equal(t, 2, tree.Count())
	declared, ok := tree.DeclaredCount()
	assert.True(t, ok)
	assert.Equal(t, 3, declared)
	assert.Empty(t, tree.Issues())

	first, err := tree.Page(0)
	require.NoError(t, err)
	second, err := tree.Page(1)
	require.NoError(t, err)
	assert.Equal(t, objectNode(t, g, 3), first.Node())
	assert.Equal(t, objectNode(t, g, 5), second.Node())
	assert.Equal(t, 1, second.Index())

	for i, p := range tree.Pages() {
		n, _ := g.Node(p.Node())
		v, ok := n.Property("page_index")
		require.True(t, ok)
		assert.Equal(t, []string{"0", "1"}[i], v)
	}

	tests := []struct {
		name   string
		page   *Page
		media  []float64
		crop   []float64
		rotate int
	}{
		{"inherits from root", first, []float64{0, 0, 612, 792}, []float64{0, 0, 612, 792}, 90},
		{"nearest ancestor wins", second, []float64{0, 0, 100, 200.5}, []float64{10, 10, 90, 190}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media, err := tt.page.MediaBox()
			require.NoError(t, err)
			assert.Equal(t, tt.media, media)
			crop, err := tt.page.CropBox()
			require.NoError(t, err)
			assert.Equal(t, tt.crop, crop)
			assert.Equal(t, tt.rotate, tt.page.Rotate())
			_, err = tt.page.Resources()
			assert.NoError(t, err)
		})
	}

	w, err := first.Width()
	require.NoError(t, err)
	assert.Equal(t, 612.0, w)
	h, err := second.Height()
	require.NoError(t, err)
	assert.Equal(t, 200.5, h)

	content := objectNode(t, g, 6)
	assert.Equal(t, []graph.NodeID{content}, first.Contents())
	assert.Equal(t, []graph.NodeID{content, objectNode(t, g, 7)}, second.Contents())
	assert.Empty(t, first.Annotations())
	assert.Equal(t, core.Name("Page"), first.Dict()["Type"])

	_, err = tree.Page(2)
	assert.Error(t, err)
	_, err = tree.Page(-1)
	assert.Error(t, err)
}

func TestTreeCycle(t *testing.T) {
	data := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>").
		Object(3, "<< /Type /Pages /Kids [2 0 R] /Count 1 >>").
		Object(4, "<< /Type /Page /Parent 2 0 R >>").
		XRefTable("/Root 1 0 R").
		Bytes()

	g := buildGraph(t, data)
	require.True(t, g.IsCyclic())
	tree, err := New(g)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Count())
	assert.Len(t, tree.Issues(), 1)
}

func TestTreeUntypedKids(t *testing.T) {
	data := pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Parent 2 0 R >>").
		XRefTable("/Root 1 0 R").
		Bytes()

	g := buildGraph(t, data)
	tree, err := New(g)
	require.NoError(t, err)
	require.Equal(t, 1, tree.Count())

	p, _ := tree.Page(0)
	_, err = p.MediaBox()
	assert.Error(t, err)
	_, err = p.Resources()
	assert.Error(t, err)
	assert.Equal(t, 0, p.Rotate())
}

func TestTreeWithoutCatalog(t *testing.T) {
	_, err := New(graph.New())
	assert.Error(t, err)

	g := graph.New()
	root := g.AddNode(graph.NodePages, core.Dict{"Kids": core.Array{}})
	page := g.AddNode(graph.NodePage, core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(10), core.Real(5.5)}})
	_, err = g.AddEdge(root, page, graph.EdgeChild, "/Kids[0]")
	require.NoError(t, err)

	tree, err := New(g)
	require.NoError(t, err)
	assert.Equal(t, root, tree.Root())
	require.Equal(t, 1, tree.Count())
	box, err := tree.Pages()[0].MediaBox()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 10, 5.5}, box)
	_, ok := tree.DeclaredCount()
	assert.False(t, ok)
}
