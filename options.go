package pdfast

import (
	"github.com/seifreed/PDF-AST-sub004/core"
	"github.com/seifreed/PDF-AST-sub004/internal/logging"
	"github.com/seifreed/PDF-AST-sub004/reader"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultChunkSize is the read size of ParseStreaming.
	DefaultChunkSize = 64 << 10
	// DefaultMaxInputSize bounds the bytes ParseReader and ParseStreaming
	// will buffer.
	DefaultMaxInputSize = 1 << 30
)

// Option configures a parse.
type Option func(*options)

// options holds the configuration of one parse.
type options struct {
	mode      core.Mode
	limits    core.Limits
	log       logrus.FieldLogger
	chunkSize int
	maxInput  int64
	progress  func(ChunkProgress)
}

// defaultOptions returns tolerant parsing with the default limits and a
// discarding logger.
func defaultOptions() options {
	return options{
		mode:      core.Tolerant,
		limits:    core.DefaultLimits(),
		chunkSize: DefaultChunkSize,
		maxInput:  DefaultMaxInputSize,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.limits = o.limits.WithDefaults()
	if o.chunkSize <= 0 {
		o.chunkSize = DefaultChunkSize
	}
	return o
}

// WithStrict aborts on the first malformed construct.
func WithStrict() Option {
	return func(o *options) { o.mode = core.Strict }
}

// WithTolerant records defects on the affected nodes and keeps going. This
// is the default.
func WithTolerant() Option {
	return func(o *options) { o.mode = core.Tolerant }
}

// WithLimits sets the resource ceilings. Zero fields keep their defaults.
func WithLimits(l core.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithLogger routes diagnostics to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithChunkSize sets how many bytes ParseStreaming reads at a time.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithProgress registers a callback invoked once per chunk by
// ParseStreaming.
func WithProgress(fn func(ChunkProgress)) Option {
	return func(o *options) { o.progress = fn }
}

// WithMaxInputSize bounds the input size. Non-positive values remove the
// bound.
func WithMaxInputSize(n int64) Option {
	return func(o *options) { o.maxInput = n }
}

func (o options) readerOptions() []reader.Option {
	return []reader.Option{
		reader.WithMode(o.mode),
		reader.WithLimits(o.limits),
		reader.WithLogger(o.logger()),
	}
}

func (o options) logger() logrus.FieldLogger {
	if o.log == nil {
		return logging.Discard()
	}
	return o.log
}

// checkSize fails when n bytes exceed the input bound.
func (o options) checkSize(n int64) error {
	if o.maxInput > 0 && n > o.maxInput {
		return core.NewError(core.ResourceLimitExceeded, core.LimitExceeded, -1,
			"input of %d bytes exceeds the limit of %d", n, o.maxInput)
	}
	return nil
}
