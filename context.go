package bitserializer

import "sync"

// Context is the per-operation state shared by every scope created during
// one root-level Load or Save. It is stack-scoped: the facade constructs a
// fresh Context for each call and never shares it across goroutines or
// across separate operations (§5).
//
// The only state it carries today is the validation error map, keyed by
// path. A Load that leaves this map non-empty causes the facade to raise
// FailedValidation once the traversal completes; errors are accumulated,
// never short-circuited (§4.6).
type Context struct {
	mu     sync.Mutex
	errors map[string][]string
	// order preserves first-seen path order so FailedValidation reports
	// errors in a stable, traversal-consistent sequence.
	order []string
}

// NewContext returns a fresh, empty Context.
func NewContext() *Context {
	return &Context{errors: make(map[string][]string)}
}

// AddError records a validation failure message at path.
func (c *Context) AddError(path, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.errors[path]; !exists {
		c.order = append(c.order, path)
	}
	c.errors[path] = append(c.errors[path], message)
}

// HasErrors reports whether any validation error has been recorded.
func (c *Context) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// FieldErrors returns the accumulated validation errors as an ordered slice,
// suitable for attaching to a FailedValidationError.
func (c *Context) FieldErrors() []FieldError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.order) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(c.order))
	for _, path := range c.order {
		msgs := make([]string, len(c.errors[path]))
		copy(msgs, c.errors[path])
		out = append(out, FieldError{Path: path, Messages: msgs})
	}
	return out
}

// Reset clears all accumulated errors. The facade does not call it: it
// builds a fresh Context with NewContext for every root-level Load/Save.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = make(map[string][]string)
	c.order = nil
}
