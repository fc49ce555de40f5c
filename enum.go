package bitserializer

import (
	"fmt"
	"reflect"
	"sync"
)

// enumDescriptor holds both directions of an enum's value<->token table for
// one registered named type.
type enumDescriptor struct {
	valueToToken map[any]string
	tokenToValue map[string]any
}

// enumRegistry is the process-wide, append-only-after-first-success table of
// registered enum descriptors, keyed by reflect.Type. It is the Convert
// layer's only mutable global state (§5) and is adapted directly from the
// teacher's registry.go double-checked-locking field-plan cache — here the
// cached artifact is an enum's value/token table instead of a reflected
// struct field plan, but the concurrency shape (RWMutex, read-fast-path,
// write-once-per-type) is unchanged.
var enumRegistry = struct {
	mu    sync.RWMutex
	table map[reflect.Type]*enumDescriptor
}{table: make(map[reflect.Type]*enumDescriptor)}

// RegisterEnum registers the value<->token table for T, a named type backed
// by a comparable primitive (typically an integer or string kind). It must
// be called once per type, normally from an init() function, before any
// Serialize call involving T. Registering the same type twice returns an
// error — Go has no compile-time mechanism to reject a duplicate
// registration, so this is enforced at the first conflicting call instead.
func RegisterEnum[T comparable](table map[T]string) error {
	t := reflect.TypeOf(*new(T))

	enumRegistry.mu.Lock()
	defer enumRegistry.mu.Unlock()

	if _, exists := enumRegistry.table[t]; exists {
		return fmt.Errorf("bitserializer: enum %s is already registered", t)
	}

	desc := &enumDescriptor{
		valueToToken: make(map[any]string, len(table)),
		tokenToValue: make(map[string]any, len(table)),
	}
	for value, token := range table {
		desc.valueToToken[value] = token
		desc.tokenToValue[token] = value
	}
	enumRegistry.table[t] = desc
	return nil
}

// lookupEnum returns the descriptor registered for t, if any.
func lookupEnum(t reflect.Type) (*enumDescriptor, bool) {
	enumRegistry.mu.RLock()
	defer enumRegistry.mu.RUnlock()
	desc, ok := enumRegistry.table[t]
	return desc, ok
}

// enumTokenForValue returns the token registered for value's dynamic type
// and value, if that type is registered.
func enumTokenForValue(value any) (string, bool) {
	desc, ok := lookupEnum(reflect.TypeOf(value))
	if !ok {
		return "", false
	}
	token, ok := desc.valueToToken[value]
	return token, ok
}

// enumValueFromToken looks up the value registered for token under type t,
// returning it boxed as any (caller must re-assign into the target via
// reflection since T is not known generically here).
func enumValueFromToken(t reflect.Type, token string) (any, bool) {
	desc, ok := lookupEnum(t)
	if !ok {
		return nil, false
	}
	value, ok := desc.tokenToValue[token]
	return value, ok
}
