// Package generation tags in-flight requests so that only the most recently
// issued one may apply its result.
//
// Every request takes a Token from Next. When its result arrives, the owner
// checks IsCurrent before touching state; results of superseded tokens are
// dropped whether or not the request noticed its context being cancelled.
//
// A Counter is not safe for concurrent use. It belongs to the single context
// that owns the controller state.
package generation

import "context"

// Token identifies one issued request.
type Token uint64

// Counter hands out monotonically increasing tokens and cancels the context
// of the request each new token supersedes.
type Counter struct {
	current Token
	cancel  context.CancelFunc
}

// Next supersedes the current request and returns the context and token for
// a new one. The previous request's context is cancelled.
func (c *Counter) Next(parent context.Context) (context.Context, Token) {
	c.release()
	c.current++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, c.current
}

// IsCurrent reports whether tok is the most recently issued token.
func (c *Counter) IsCurrent(tok Token) bool {
	return tok == c.current
}

// Current returns the most recently issued token.
func (c *Counter) Current() Token {
	return c.current
}

// Finish releases the context of tok once its result has been applied.
// It is a no-op for superseded tokens.
func (c *Counter) Finish(tok Token) {
	if tok == c.current {
		c.release()
	}
}

// Invalidate supersedes the current request without issuing a new one.
// Any result that arrives afterwards is stale.
func (c *Counter) Invalidate() {
	c.release()
	c.current++
}

func (c *Counter) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
