package bitserializer

// Mode identifies the direction of a scope or archive operation.
// A given scope is always directional: it is never both Load and Save.
type Mode int

const (
	// ModeLoad indicates values flow from the backend into Go values.
	ModeLoad Mode = iota
	// ModeSave indicates values flow from Go values into the backend.
	ModeSave
)

func (m Mode) String() string {
	if m == ModeSave {
		return "save"
	}
	return "load"
}

// KeyKind identifies a concrete key representation a backend can accept
// for object members, beyond the universal string key.
type KeyKind int

const (
	// KeyKindString is supported by every backend in this repository.
	KeyKindString KeyKind = iota
	// KeyKindBinTimestamp names a BinTimestamp map key. No backend in this
	// repository declares it; every backend's map keys are strings.
	KeyKindBinTimestamp
)
