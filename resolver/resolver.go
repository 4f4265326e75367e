package resolver

import (
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/graph"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/sirupsen/logrus"
)

// Option configures a Builder.
type Option func(*Builder)

// WithMode sets strict or tolerant handling of unresolvable references.
func WithMode(m core.Mode) Option {
	return func(b *Builder) {
		b.mode = m
	}
}

// WithLimits sets the reference depth and node count ceilings. Zero fields
// take their defaults.
func WithLimits(l core.Limits) Option {
	return func(b *Builder) {
		b.limits = l.WithDefaults()
	}
}

// WithLogger sets the logger recovered defects are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Builder) {
		b.log = l
	}
}

// ResolveReferences follows every reference held by the nodes of g and
// links it, creating nodes for objects g does not have yet. Links already
// present are kept, so running it over a graph Build produced changes
// nothing. It is meant for diagnostics on graphs built or edited by hand.
func ResolveReferences(r *reader.Reader, g *graph.Graph, mode core.Mode, limits core.Limits) (Report, error) {
	b := NewBuilder(r, WithMode(mode), WithLimits(limits))
	b.g = g

	depths := g.Depths()
	for _, n := range g.Nodes() {
		b.queue = append(b.queue, task{id: n.ID, depth: depths[n.ID]})
		if err := b.drain(); err != nil {
			return b.Report(), err
		}
	}
	b.built = true
	return b.Report(), nil
}
