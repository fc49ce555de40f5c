package bitserializer

// MismatchedTypesPolicy controls behavior when the archive value found at a
// position is the wrong kind for the target Go type.
type MismatchedTypesPolicy int

const (
	// MismatchedTypesThrowError raises a MismatchedTypes error immediately.
	MismatchedTypesThrowError MismatchedTypesPolicy = iota
	// MismatchedTypesSkip leaves the target field untouched and continues;
	// a Required validator, if attached, will still flag the field.
	MismatchedTypesSkip
)

// OverflowNumberPolicy controls behavior when a loaded number does not fit
// the target numeric type.
type OverflowNumberPolicy int

const (
	// OverflowThrowError raises an Overflow error immediately.
	OverflowThrowError OverflowNumberPolicy = iota
	// OverflowSkip leaves the target field untouched and continues.
	OverflowSkip
)

// UTFEncodingErrorPolicy controls behavior when transcoding a string
// encounters an invalid byte sequence.
type UTFEncodingErrorPolicy int

const (
	// UTFEncodingThrowError raises a UtfEncodingError immediately.
	UTFEncodingThrowError UTFEncodingErrorPolicy = iota
	// UTFEncodingSkip substitutes the U+2610 error symbol and continues.
	UTFEncodingSkip
)

// UTFType enumerates the stream encodings the engine can auto-detect on read
// and optionally write with a BOM.
type UTFType int

const (
	UTF8 UTFType = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
)

// FormatOptions controls cosmetic rendering of text backends.
type FormatOptions struct {
	// EnableFormat turns on pretty-printing (indentation/newlines) where the
	// backend supports it.
	EnableFormat bool
	// PaddingChar is the indentation character (default ' ').
	PaddingChar rune
	// PaddingCharNum is how many PaddingChar to emit per indentation level.
	PaddingCharNum int
}

// StreamOptions describes stream-level encoding concerns. Neither the facade
// nor any backend in this repository reads these fields: SaveObject always
// returns the backend's own output (UTF-8 for text backends, no BOM) and
// LoadObject passes input bytes to the backend without BOM detection or
// transcoding. utf.go's DetectEncoding/DecodeStream/EncodeStream perform
// those conversions when called directly.
type StreamOptions struct {
	// WriteBOM selects whether a byte-order mark is wanted on Save.
	WriteBOM bool
	// Encoding is the stream's text encoding; UTF8 unless overridden.
	Encoding UTFType
}

// Options bundles every policy and formatting knob recognized by the engine.
// A zero-value Options is valid and selects ThrowError policies, UTF-8
// streams and no pretty-printing.
type Options struct {
	MismatchedTypesPolicy  MismatchedTypesPolicy
	OverflowNumberPolicy   OverflowNumberPolicy
	UTFEncodingErrorPolicy UTFEncodingErrorPolicy
	Format                 FormatOptions
	Stream                 StreamOptions
}

// DefaultOptions returns the engine's defaults, spelled out explicitly for
// callers who want to start from a known baseline and override one field.
// The policies and encoding equal the zero value; the padding does not
// (' ' repeated twice per level, where a zero-value Options has none).
func DefaultOptions() Options {
	return Options{
		MismatchedTypesPolicy:  MismatchedTypesThrowError,
		OverflowNumberPolicy:   OverflowThrowError,
		UTFEncodingErrorPolicy: UTFEncodingThrowError,
		Format:                 FormatOptions{PaddingChar: ' ', PaddingCharNum: 2},
		Stream:                 StreamOptions{Encoding: UTF8},
	}
}
