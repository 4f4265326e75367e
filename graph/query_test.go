package graph

import (
	"testing"

	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/stretchr/testify/assert"
)

func TestQuery(t *testing.T) {
	g, ids := sample(t)
	font, _ := g.Node(ids["font"])
	font.AddError(core.NewError(core.StructuralError, core.MissingKeyword, 0, "x"))
	orphan, _ := g.Node(ids["orphan"])
	orphan.AddError(core.NewError(core.TokenError, core.MalformedName, 0, "y"))

	tests := []struct {
		name  string
		query *Query
		want  []NodeID
	}{
		{"all", NewQuery(g), []NodeID{0, 1, 2, 3, 4, 5, 6}},
		{"type", NewQuery(g).WithType(NodePage), []NodeID{ids["page1"], ids["page2"]}},
		{"types", NewQuery(g).WithType(NodePage, NodeFont), []NodeID{ids["page1"], ids["page2"], ids["font"]}},
		{"narrowed types", NewQuery(g).WithType(NodePage, NodeFont).WithType(NodeFont), []NodeID{ids["font"]}},
		{"errors", NewQuery(g).WithErrors(), []NodeID{ids["font"], ids["orphan"]}},
		{"depth", NewQuery(g).WithMaxDepth(2), []NodeID{ids["root"], ids["catalog"], ids["pages"]}},
		{"depth excludes unreachable", NewQuery(g).WithErrors().WithMaxDepth(10), []NodeID{ids["font"]}},
		{"depth zero", NewQuery(g).WithMaxDepth(0), []NodeID{ids["root"]}},
		{"combined", NewQuery(g).WithType(NodePage).WithMaxDepth(2), nil},
		{"predicate", NewQuery(g).Where(func(n *Node) bool { return n.ID%2 == 1 }), []NodeID{1, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Execute())
		})
	}
}
