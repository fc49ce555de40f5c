package bitserializer

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
)

// Validator is a predicate run on Load, after Refiners have applied, against
// the loaded value and whether a value was actually present at the key. It
// returns a non-empty message to fail validation, or "" to pass. Validators
// never run on Save (§4.6).
type Validator[V any] func(value V, wasLoaded bool) string

// Required fails when the field was absent on Load.
func Required[V any]() Validator[V] {
	return func(_ V, wasLoaded bool) string {
		if !wasLoaded {
			return "value is required"
		}
		return ""
	}
}

// Range fails when value falls outside [min, max], inclusive.
func Range[V int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64 | float32 | float64](min, max V) Validator[V] {
	return func(value V, wasLoaded bool) string {
		if !wasLoaded {
			return ""
		}
		if value < min || value > max {
			return fmt.Sprintf("value %v is out of range [%v, %v]", value, min, max)
		}
		return ""
	}
}

// sizeOf returns len(value) for any value Go's len() accepts (string, slice,
// array, map, chan), and ok=false for anything else.
func sizeOf(value any) (int, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return v.Len(), true
	default:
		return 0, false
	}
}

// MinSize fails when a loaded string or container has fewer than n elements.
func MinSize[V any](n int) Validator[V] {
	return func(value V, wasLoaded bool) string {
		if !wasLoaded {
			return ""
		}
		size, ok := sizeOf(value)
		if !ok {
			return ""
		}
		if size < n {
			return fmt.Sprintf("size %d is smaller than minimum %d", size, n)
		}
		return ""
	}
}

// MaxSize fails when a loaded string or container has more than n elements.
func MaxSize[V any](n int) Validator[V] {
	return func(value V, wasLoaded bool) string {
		if !wasLoaded {
			return ""
		}
		size, ok := sizeOf(value)
		if !ok {
			return ""
		}
		if size > n {
			return fmt.Sprintf("size %d exceeds maximum %d", size, n)
		}
		return ""
	}
}

// Email fails when a loaded string is not a syntactically valid email
// address per net/mail's RFC 5322 address parser.
func Email() Validator[string] {
	return func(value string, wasLoaded bool) string {
		if !wasLoaded {
			return ""
		}
		if _, err := mail.ParseAddress(value); err != nil {
			return "not a valid email address"
		}
		return ""
	}
}

var phoneNumberPattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,19}$`)

// PhoneNumber fails when a loaded string does not look like a phone number:
// an optional leading '+', followed by 6-20 digits/spaces/hyphens/parens.
func PhoneNumber() Validator[string] {
	return func(value string, wasLoaded bool) string {
		if !wasLoaded {
			return ""
		}
		if !phoneNumberPattern.MatchString(value) {
			return "not a valid phone number"
		}
		return ""
	}
}
