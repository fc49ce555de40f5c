package bitserializer

// KeyValue is an ephemeral binding of (key, reference-to-field, validators,
// refiners) created at the call site; it lives only for the duration of one
// archive operation and never outlives it (§3, Ownership).
//
// A KeyValue built by KV/AutoKV routes to the object scope itself; one built
// by AttrKV/AutoAttrKV (below) is the same binding routed to the attribute
// sub-scope instead — the two share validators/refiners/Fallback handling;
// only the channel they serialize through differs.
type KeyValue[V any] struct {
	Key         string
	Ref         *V
	Validators  []Validator[V]
	Refiners    []Refiner[V]
	Fallback    *V
	mapLoadMode MapLoadMode
	attribute   bool
}

// KV binds key to ref for a backend whose key type is string (every backend
// in this repository).
func KV[V any](key string, ref *V, opts ...KeyValueOption[V]) KeyValue[V] {
	kv := KeyValue[V]{Key: key, Ref: ref}
	for _, opt := range opts {
		opt(&kv)
	}
	return kv
}

// AutoKV is the Go realization of AutoKeyValue: because every backend here
// already accepts a string key, it is identical to KV. It exists so call
// sites written against a generic key type (e.g. derived from a non-string
// named type) can convert explicitly at the call site.
func AutoKV[K ~string, V any](key K, ref *V, opts ...KeyValueOption[V]) KeyValue[V] {
	return KV(string(key), ref, opts...)
}

// AttrKV binds key to ref and routes it through the current scope's
// attribute sub-scope (XML only; backends without AttributeOpener reject it
// at dispatch time). Per the resolved open question on AttributeValue's
// constructor, validators and refiners passed here ARE retained and run
// exactly as they would for an object-routed KeyValue.
func AttrKV[V any](key string, ref *V, opts ...KeyValueOption[V]) KeyValue[V] {
	kv := KeyValue[V]{Key: key, Ref: ref, attribute: true}
	for _, opt := range opts {
		opt(&kv)
	}
	return kv
}

// AutoAttrKV is AttrKV for a non-string named key type, mirroring AutoKV.
func AutoAttrKV[K ~string, V any](key K, ref *V, opts ...KeyValueOption[V]) KeyValue[V] {
	return AttrKV(string(key), ref, opts...)
}

// IsAttribute reports whether kv was constructed via AttrKV/AutoAttrKV.
func (kv KeyValue[V]) IsAttribute() bool { return kv.attribute }

// KeyValueOption configures a KeyValue (object- or attribute-routed) at
// construction.
type KeyValueOption[V any] func(*KeyValue[V])

// WithValidators attaches validators, run in order on Load only.
func WithValidators[V any](validators ...Validator[V]) KeyValueOption[V] {
	return func(kv *KeyValue[V]) {
		kv.Validators = append(kv.Validators, validators...)
	}
}

// WithRefiners attaches refiners, run in order on both Load and Save.
func WithRefiners[V any](refiners ...Refiner[V]) KeyValueOption[V] {
	return func(kv *KeyValue[V]) {
		kv.Refiners = append(kv.Refiners, refiners...)
	}
}

// WithFallback attaches a Fallback value, substituted on Load when the key
// is absent. The field then counts as loaded, so refiners run on it and a
// Required validator on the same field passes.
func WithFallback[V any](value V) KeyValueOption[V] {
	return func(kv *KeyValue[V]) {
		v := value
		kv.Fallback = &v
	}
}

// WithMapLoadMode sets how a map-typed field is mutated on Load (§4.5).
// Meaningless for non-map V; ignored in that case. Defaults to
// MapLoadClean when not given.
func WithMapLoadMode[V any](mode MapLoadMode) KeyValueOption[V] {
	return func(kv *KeyValue[V]) {
		kv.mapLoadMode = mode
	}
}
