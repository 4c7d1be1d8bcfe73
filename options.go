package mudgo

import (
	"github.com/hupe1980/mudgo/persistence"
)

// JoinMode selects how global indexes are derived from modality indexes.
type JoinMode uint8

const (
	// JoinUnion keeps every identifier seen in any modality, first-seen
	// order in registry order. The default.
	JoinUnion JoinMode = iota
	// JoinIntersection keeps only identifiers present in every modality.
	JoinIntersection
)

// String returns the stable join mode name.
func (j JoinMode) String() string {
	switch j {
	case JoinUnion:
		return "union"
	case JoinIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

type options struct {
	join        JoinMode
	logger      *Logger
	compression persistence.CompressionType
}

func defaultOptions() options {
	return options{
		join:        JoinUnion,
		logger:      NoopLogger(),
		compression: persistence.CompressionZSTD,
	}
}

// Option configures container construction.
type Option func(*options)

// WithJoin selects union or intersection indexing. The mode applies to every
// subsequent synchronization pass, not just construction.
func WithJoin(mode JoinMode) Option {
	return func(o *options) {
		o.join = mode
	}
}

// WithLogger configures structured logging. If nil is passed, logging is
// disabled.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithCompression selects the block compression used for global sections
// when the container is saved. Modalities choose their own.
func WithCompression(ct persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = ct
	}
}

// OpenOption configures Open behavior.
type OpenOption func(*openOptions)

type openOptions struct {
	backed  bool
	options []Option
}

// WithBacked keeps the store handle open and loads modality payloads lazily
// on first access instead of materializing everything. Backed containers are
// read-only for structural operations until the affected modality is
// materialized; annotation edits remain allowed.
func WithBacked() OpenOption {
	return func(o *openOptions) {
		o.backed = true
	}
}

// WithOptions forwards container options (logger, compression) to the opened
// container.
func WithOptions(opts ...Option) OpenOption {
	return func(o *openOptions) {
		o.options = append(o.options, opts...)
	}
}
