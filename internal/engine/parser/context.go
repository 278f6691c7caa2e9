package parser

import "stratum/internal/engine/source"

// ParseError is a structured diagnostic accumulated during parsing.
// Errors recorded inside a backtracked branch are kept: a failed Choice
// alternative may still have produced a useful message.
type ParseError struct {
	Message string
	Span    source.Span
}

// Context is the mutable state threaded through one parse call: the input,
// a position, and the accumulated diagnostics. Mark/Reset give backtracking
// its snapshot semantics; only the position rolls back, never the errors.
type Context struct {
	input  []byte
	pos    int
	depth  int
	errors []ParseError
}

func NewContext(input []byte) *Context {
	return &Context{input: input}
}

func (c *Context) Pos() int {
	return c.pos
}

func (c *Context) Input() []byte {
	return c.input
}

func (c *Context) AtEnd() bool {
	return c.pos >= len(c.input)
}

func (c *Context) Remaining() []byte {
	return c.input[c.pos:]
}

// Mark snapshots the current position for a later Reset.
func (c *Context) Mark() int {
	return c.pos
}

// Reset rolls the position back to a previous Mark. Accumulated errors are
// deliberately untouched.
func (c *Context) Reset(mark int) {
	c.pos = mark
}

func (c *Context) advance(n int) {
	c.pos += n
}

func (c *Context) AddError(message string, span source.Span) {
	c.errors = append(c.errors, ParseError{Message: message, Span: span})
}

// Errors returns the diagnostics accumulated so far. An empty slice, not
// a bare success result, is the signal for a clean parse.
func (c *Context) Errors() []ParseError {
	return c.errors
}
