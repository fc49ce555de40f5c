package bitserializer

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling with errors.Is().
// Every concrete error type below wraps one of these.
var (
	// ErrParsing indicates the backend could not parse its input.
	ErrParsing = errors.New("parsing error")

	// ErrMismatchedTypes indicates the archive value was the wrong kind for
	// the target Go type.
	ErrMismatchedTypes = errors.New("mismatched types")

	// ErrOverflow indicates a number or duration did not fit the target.
	ErrOverflow = errors.New("overflow")

	// ErrOutOfRange indicates an array read past its declared end.
	ErrOutOfRange = errors.New("out of range")

	// ErrUTFEncoding indicates transcoding encountered an invalid sequence.
	ErrUTFEncoding = errors.New("UTF encoding error")

	// ErrUnsupportedEncoding indicates a requested stream encoding is not
	// supported by the backend.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrInputOutput indicates a file I/O failure.
	ErrInputOutput = errors.New("input/output error")

	// ErrFailedValidation indicates one or more validators reported a
	// failure during Load. See FailedValidationError for the field list.
	ErrFailedValidation = errors.New("validation failed")

	// ErrAmbiguousSerializer indicates a type implements more than one of
	// Serializer / ArraySerializer, which dispatch cannot resolve (§4.3.4).
	ErrAmbiguousSerializer = errors.New("ambiguous serializer")

	// ErrNoSerializer indicates an aggregate implements neither Serializer
	// nor ArraySerializer (the Go analogue of "otherwise, compile-error").
	ErrNoSerializer = errors.New("no serializer")
)

// ParsingError reports a backend syntax error, optionally located by byte
// offset and/or line/column.
type ParsingError struct {
	Err     error
	Message string
	Offset  int
	Line    int
	Column  int
	HasPos  bool
}

func (e *ParsingError) Error() string {
	if e.HasPos {
		return fmt.Sprintf("%s: %s (offset %d, line %d, column %d)", e.Err.Error(), e.Message, e.Offset, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// NewParsingError builds a ParsingError without position information.
func NewParsingError(message string) error {
	return &ParsingError{Err: ErrParsing, Message: message}
}

// NewParsingErrorAt builds a ParsingError with a byte offset and line/column.
func NewParsingErrorAt(message string, offset, line, column int) error {
	return &ParsingError{Err: ErrParsing, Message: message, Offset: offset, Line: line, Column: column, HasPos: true}
}

// SerializationError is the general-purpose error for MismatchedTypes,
// Overflow, OutOfRange and UtfEncodingError — the four kinds whose handling
// is policy-governed (§4.8). Path identifies where in the document the
// failure occurred.
type SerializationError struct {
	Err     error
	Path    string
	Message string
}

func (e *SerializationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %q: %s", e.Err.Error(), e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func newSerializationError(sentinel error, path, message string) error {
	return &SerializationError{Err: sentinel, Path: path, Message: message}
}

// NewMismatchedTypesError builds a MismatchedTypes SerializationError.
func NewMismatchedTypesError(path, message string) error {
	return newSerializationError(ErrMismatchedTypes, path, message)
}

// NewOverflowError builds an Overflow SerializationError.
func NewOverflowError(path, message string) error {
	return newSerializationError(ErrOverflow, path, message)
}

// NewOutOfRangeError builds an OutOfRange SerializationError.
func NewOutOfRangeError(path, message string) error {
	return newSerializationError(ErrOutOfRange, path, message)
}

// NewUTFEncodingError builds a UtfEncodingError SerializationError.
func NewUTFEncodingError(path, message string) error {
	return newSerializationError(ErrUTFEncoding, path, message)
}

// NewUnsupportedEncodingError builds an UnsupportedEncoding error.
func NewUnsupportedEncodingError(message string) error {
	return newSerializationError(ErrUnsupportedEncoding, "", message)
}

// InputOutputError wraps a file-system failure encountered by the facade.
type InputOutputError struct {
	Err   error
	Path  string
	Cause error
}

func (e *InputOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Err.Error(), e.Path, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Path)
}

func (e *InputOutputError) Unwrap() error { return e.Err }

// NewInputOutputError wraps cause as an InputOutputError for path.
func NewInputOutputError(path string, cause error) error {
	return &InputOutputError{Err: ErrInputOutput, Path: path, Cause: cause}
}

// FieldError is one path's accumulated validation messages.
type FieldError struct {
	Path     string
	Messages []string
}

// FailedValidationError carries every validation failure accumulated during
// one Load operation. Multiple validators failing on the same or different
// fields are all reported — Load never stops at the first failure (§4.6).
type FailedValidationError struct {
	Err    error
	Fields []FieldError
}

func (e *FailedValidationError) Error() string {
	if len(e.Fields) == 1 && len(e.Fields[0].Messages) == 1 {
		return fmt.Sprintf("%s: %s: %s", e.Err.Error(), e.Fields[0].Path, e.Fields[0].Messages[0])
	}
	return fmt.Sprintf("%s: %d field(s) failed", e.Err.Error(), len(e.Fields))
}

func (e *FailedValidationError) Unwrap() error { return e.Err }

// NewFailedValidationError builds a FailedValidationError from an already
// ordered field list (see Context.FieldErrors).
func NewFailedValidationError(fields []FieldError) error {
	return &FailedValidationError{Err: ErrFailedValidation, Fields: fields}
}
