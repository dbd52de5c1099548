package crash

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/willibrandon/faultline/pkg/config"
	"github.com/willibrandon/faultline/pkg/locator"
)

type options struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	platform Platform
	resolver locator.Resolver
	output   io.Writer
}

// Option configures Setup.
type Option func(*options)

// WithConfig uses cfg instead of loading the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger uses logger instead of building one. Its output is not copied
// into the artifact's log section.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithPlatform replaces the signal interface.
func WithPlatform(p Platform) Option {
	return func(o *options) { o.platform = p }
}

// WithResolver replaces the command resolver used for the debugger.
func WithResolver(r locator.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithOutput sets where the artifact location is reported.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
