package bitserializer

// Raw is an opaque holder for a backend-native sub-tree, letting a caller
// pass an unparsed payload straight through without decoding it into Go
// types (§3/GLOSSARY). On Load, Backend implementations that support Raw
// populate Data with their native encoding of the current position's
// sub-tree (e.g. the raw JSON bytes); on Save, Data is re-emitted verbatim.
// Serialize returns a MismatchedTypes error for a Raw field whose object
// scope does not implement RawSupporter; no backend in this module does.
type Raw struct {
	// Data holds the backend-native encoding of the sub-tree.
	Data []byte
}

// RawSupporter is implemented by object scopes whose backend can pass a Raw
// sub-tree through by key without parsing it (e.g. embedding a pre-rendered
// JSON fragment). Backends without a tree-shaped native payload, or that
// never need this escape hatch, simply don't implement it.
type RawSupporter interface {
	// SerializeRaw loads into or saves from raw at key.
	SerializeRaw(key string, raw *Raw) (bool, error)
}
