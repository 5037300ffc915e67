// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import "github.com/go-logr/logr"

type options struct {
	name   string
	logger logr.Logger
	fatal  FatalFunc
}

func defaultOptions() options {
	return options{
		name:   "store",
		logger: logr.Discard(),
		fatal:  Panic,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Store, a dispatcher or the SerialEffect wrapper.
type Option func(*options)

// WithName sets the name used in log lines and as the metrics label.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFatal replaces the invariant-violation policy. The default is [Panic].
func WithFatal(fatal FatalFunc) Option {
	return func(o *options) {
		if fatal != nil {
			o.fatal = fatal
		}
	}
}
