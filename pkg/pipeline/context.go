package pipeline

import (
	"maps"

	"github.com/rs/zerolog"
)

// Context carries the read-only run flags handed to every operator. It is
// built once with NewContext and never mutated afterwards.
type Context struct {
	verbose       bool
	describeInput bool
	inputs        map[string]string
	logger        zerolog.Logger
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithVerbose enables operator and compiler diagnostics.
func WithVerbose(v bool) ContextOption {
	return func(c *Context) { c.verbose = v }
}

// WithDescribeInput switches pipes into input-description mode: instead of
// running, a pipe yields one record per declared input.
func WithDescribeInput(v bool) ContextOption {
	return func(c *Context) { c.describeInput = v }
}

// WithInputs supplies values for declared inputs, keyed by input name.
func WithInputs(inputs map[string]string) ContextOption {
	return func(c *Context) { c.inputs = maps.Clone(inputs) }
}

// WithLogger sets the logger operators write diagnostics to.
func WithLogger(l zerolog.Logger) ContextOption {
	return func(c *Context) { c.logger = l }
}

// NewContext builds an immutable run context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verbose reports whether diagnostics were requested.
func (c *Context) Verbose() bool {
	return c != nil && c.verbose
}

// DescribeInput reports whether the caller only wants the declared inputs.
func (c *Context) DescribeInput() bool {
	return c != nil && c.describeInput
}

// Input returns the value supplied for a declared input.
func (c *Context) Input(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.inputs[name]
	return v, ok
}

// Logger returns the diagnostics logger; a Nop logger when none was set.
func (c *Context) Logger() *zerolog.Logger {
	if c == nil {
		nop := zerolog.Nop()
		return &nop
	}
	l := c.logger
	return &l
}
