package bitserializer

import "strings"

// Refiner transforms the field reference on Save (before the value is
// written) or on Load (after the value is read). Refiners run in declared
// order, before validators (§4.6).
type Refiner[V any] func(value V) V

// TrimWhitespace strips leading and trailing whitespace from a string.
func TrimWhitespace() Refiner[string] {
	return func(value string) string {
		return strings.TrimSpace(value)
	}
}

// ToLowerCase lowercases a string.
func ToLowerCase() Refiner[string] {
	return func(value string) string {
		return strings.ToLower(value)
	}
}
