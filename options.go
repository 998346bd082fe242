package modelbuf

import (
	"github.com/hupe1980/modelbuf/container"
	"github.com/hupe1980/modelbuf/verify"
)

type options struct {
	logger        *Logger
	skipVerify    bool
	verifyOptions []func(*verify.Options)
	saveOptions   []func(*container.Options)
}

// Option configures open and save behavior.
type Option func(*options)

func applyOptions(optFns []Option) options {
	opts := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSkipVerify disables buffer verification on open. Only do this for
// buffers produced in-process; files and network input should always be
// verified.
func WithSkipVerify() Option {
	return func(o *options) {
		o.skipVerify = true
	}
}

// WithVerifyOptions forwards options to the verifier, e.g.
// verify.WithMaxDepth.
func WithVerifyOptions(optFns ...func(*verify.Options)) Option {
	return func(o *options) {
		o.verifyOptions = append(o.verifyOptions, optFns...)
	}
}

// WithSaveOptions forwards options to the container encoder, e.g.
// container.WithCodec(container.CodecLZ4).
func WithSaveOptions(optFns ...func(*container.Options)) Option {
	return func(o *options) {
		o.saveOptions = append(o.saveOptions, optFns...)
	}
}
