// Package simcontext carries a structured logger alongside a standard
// context.Context, the way armada's armadacontext package does, so call
// sites can write ctx.Infof(...) directly instead of threading a logger
// argument through every function.
package simcontext

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Context bundles a context.Context with a logrus.FieldLogger. Embedding
// the logger interface means Context exposes Infof, Debugf, WithField,
// etc. directly.
type Context struct {
	context.Context
	logrus.FieldLogger
}

// Background returns a Context wrapping context.Background() with a
// default logrus logger.
func Background() *Context {
	return New(context.Background(), logrus.StandardLogger())
}

// New wraps an existing context.Context and logger together.
func New(ctx context.Context, log logrus.FieldLogger) *Context {
	return &Context{Context: ctx, FieldLogger: log}
}

// WithLogField returns a copy of ctx with the key-value pair added to
// the logger.
func WithLogField(ctx *Context, key string, val interface{}) *Context {
	return &Context{Context: ctx.Context, FieldLogger: ctx.FieldLogger.WithField(key, val)}
}

// WithCancel is analogous to context.WithCancel, preserving the logger.
func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return &Context{Context: c, FieldLogger: parent.FieldLogger}, cancel
}

// ErrGroup returns a new errgroup.Group and a Context derived from
// parent whose embedded context.Context is cancelled as soon as any
// goroutine in the group returns an error. Used by the cellsim CLI to
// run multiple independent scenario files concurrently — each
// scenario's own Simulator still drains its event queue strictly
// sequentially; only distinct scenario *runs* run as goroutines.
func ErrGroup(parent *Context) (*errgroup.Group, *Context) {
	g, goctx := errgroup.WithContext(parent.Context)
	return g, &Context{Context: goctx, FieldLogger: parent.FieldLogger}
}

// NullLogger returns a logger that discards all output, used when a
// simulation run has logging disabled but code still wants to call
// ctx.Infof unconditionally.
func NullLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(nullWriter{})
	return log
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }
