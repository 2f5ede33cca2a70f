package imagetar

import (
	"io"
	"log/slog"
)

type options struct {
	manifestOrder bool
	logger        *slog.Logger
}

// Option configures Read.
type Option interface {
	apply(*options)
}

type manifestOrderOption bool

func (m manifestOrderOption) apply(opts *options) {
	opts.manifestOrder = bool(m)
}

// WithManifestOrder selects layers listed in manifest.json, in manifest
// order, instead of every `*/layer.tar` entry in archive order. The image
// must be an io.ReadSeeker.
func WithManifestOrder() Option {
	return manifestOrderOption(true)
}

type loggerOption struct{ l *slog.Logger }

func (l loggerOption) apply(opts *options) {
	opts.logger = l.l
}

// WithLogger sets the logger for debug messages.
func WithLogger(l *slog.Logger) Option {
	return loggerOption{l}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
