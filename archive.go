package bitserializer

// Archive is the thin cursor a user's Serialize/SerializeArray method
// receives: the currently open Scope plus convenience accessors for the
// Context and Options that every scope along the traversal shares. It is a
// single object threaded through one recursive traversal, carrying a Scope
// instead of a reflected field plan, since dispatch is driven by
// user-written Serialize methods rather than struct tags (§4.3).
type Archive struct {
	scope Scope
}

// NewArchive wraps scope for use by generic dispatch and user Serialize
// methods.
func NewArchive(scope Scope) *Archive {
	return &Archive{scope: scope}
}

// Scope returns the archive's current cursor.
func (a *Archive) Scope() Scope { return a.scope }

// Mode reports whether this archive is loading or saving.
func (a *Archive) Mode() Mode { return a.scope.Mode() }

// Context returns the shared per-operation validation error accumulator.
func (a *Archive) Context() *Context { return a.scope.Context() }

// Options returns the shared per-operation serialization options.
func (a *Archive) Options() *Options { return a.scope.Options() }

// IsLoading reports whether this archive is in Load mode.
func (a *Archive) IsLoading() bool { return a.scope.Mode() == ModeLoad }

// IsSaving reports whether this archive is in Save mode.
func (a *Archive) IsSaving() bool { return a.scope.Mode() == ModeSave }

// withScope returns a shallow copy of a positioned at a nested scope. Used
// internally by dispatch when it opens a child object/array scope.
func (a *Archive) withScope(scope Scope) *Archive {
	return &Archive{scope: scope}
}

// Serializer is implemented by any aggregate type that serializes itself as
// a keyed object. Exactly one of Serializer or ArraySerializer may be
// implemented by a given type (§4.3.4); implementing both is a misuse that
// dispatch reports as ErrAmbiguousSerializer.
type Serializer interface {
	Serialize(arc *Archive) error
}

// ArraySerializer is implemented by any aggregate type that serializes
// itself as a positional array rather than a keyed object.
type ArraySerializer interface {
	SerializeArray(arc *Archive) error
}

// SerializeBase is the Go realization of BaseObject<B> (§4.3.5): Go has no
// base classes, so an embedding type calls SerializeBase inline, passing the
// embedded value's own Serialize method into the same object scope the
// embedding type is currently writing.
func SerializeBase(arc *Archive, base Serializer) error {
	return base.Serialize(arc)
}

// classifySerializer inspects v and returns which of Serializer /
// ArraySerializer it implements. Implementing both is reported as an error
// rather than silently picking one, enforcing the "exactly one" rule.
func classifySerializer(v any) (Serializer, ArraySerializer, error) {
	s, isSerializer := v.(Serializer)
	as, isArraySerializer := v.(ArraySerializer)
	if isSerializer && isArraySerializer {
		return nil, nil, ErrAmbiguousSerializer
	}
	if !isSerializer && !isArraySerializer {
		return nil, nil, nil
	}
	return s, as, nil
}
