package bitserializer

// Traits describes a backend's fixed, compile-time-constant capabilities.
// A Backend returns the same Traits value for the lifetime of the process;
// the engine never mutates it.
type Traits struct {
	// SupportedKeyKinds lists the key representations the backend accepts
	// for object members, beyond the universal KeyKindString.
	SupportedKeyKinds []KeyKind

	// PathSeparator is used when rendering Scope.Path().
	PathSeparator rune

	// IsBinary selects how dispatch serializes time.Time/time.Duration/
	// CTimeRef: as a BinTimestamp when true, as an ISO-8601 string otherwise.
	// Dispatch does not count an aggregate's fields before opening it; it
	// always passes a field-count hint of 0.
	IsBinary bool

	// ArchiveType is a short, stable tag such as "json", "xml", "yaml",
	// "msgpack", "csv" — used in error messages and telemetry.
	ArchiveType string
}

// SupportsKeyKind reports whether the traits declare support for kind.
// KeyKindString is implicitly supported by every backend.
func (t Traits) SupportsKeyKind(kind KeyKind) bool {
	if kind == KeyKindString {
		return true
	}
	for _, k := range t.SupportedKeyKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// The following capability predicates are the Go realization of BitSerializer's
// compile-time trait system (§4.2). C++ answers "does this scope support X"
// with a template predicate resolved at compile time; Go has no equivalent
// mechanism for arbitrary interface combinations, so each predicate here is a
// single type assertion. Every predicate degrades to false cleanly — none of
// them panics when the capability is absent: missing traits never break
// compilation (or, here, never break a call).

// SupportsObjectWithoutKey reports whether scope can open a nested object
// scope without a key (Root or Array position).
func SupportsObjectWithoutKey(scope Scope) bool {
	_, ok := scope.(ObjectOpener)
	return ok
}

// SupportsObjectWithKey reports whether scope can open a nested object scope
// by key (an Object position).
func SupportsObjectWithKey(scope ObjectScope) bool {
	return scope != nil
}

// SupportsArrayWithoutKey reports whether scope can open a nested array scope
// without a key.
func SupportsArrayWithoutKey(scope Scope) bool {
	_, ok := scope.(ArrayOpener)
	return ok
}

// SupportsBinary reports whether an object scope can open a binary sub-scope.
func SupportsBinary(scope ObjectScope) bool {
	_, ok := scope.(BinaryOpener)
	return ok
}

// SupportsAttribute reports whether an object scope has an XML-style
// attribute side channel.
func SupportsAttribute(scope ObjectScope) bool {
	_, ok := scope.(AttributeOpener)
	return ok
}

// IsValueScope reports whether scope can read/write a single primitive.
func IsValueScope(scope Scope) bool {
	_, ok := scope.(ValueScope)
	return ok
}

// IsStringScope reports whether scope can read/write a string.
func IsStringScope(scope Scope) bool {
	_, ok := scope.(StringScope)
	return ok
}
