// Package testing provides shared fixtures for exercising BitSerializer
// backends; the integration/ and benchmarks/ packages import them together
// with the json/xml/yaml/msgpack/csv backends.
package testing

import (
	bitserializer "github.com/bitserializer/bitserializer-go"
)

// Contact is a flat fixture: every field is a primitive or string, so it
// round-trips through every backend, including CSV's one-row model.
type Contact struct {
	Name  string
	Age   int
	Email string
	VIP   bool
}

func (c *Contact) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("name", &c.Name)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("age", &c.Age)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("email", &c.Email)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("vip", &c.VIP))
}

// NewContact returns a canonical filled-in Contact for round-trip tests.
func NewContact() *Contact {
	return &Contact{Name: "ada lovelace", Age: 36, Email: "ada@example.com", VIP: true}
}

// Dimensions is a nested aggregate used by Widget to exercise the
// tree-based backends' object-in-object nesting, which CSV cannot model.
type Dimensions struct {
	WidthCM  float64
	HeightCM float64
}

func (d *Dimensions) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("width_cm", &d.WidthCM)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("height_cm", &d.HeightCM))
}

// Widget is a nested fixture for json/xml/yaml/msgpack: a slice field, a
// nested aggregate and an absent-by-default Optional.
type Widget struct {
	SKU    string
	Price  float64
	Tags   []string
	Size   Dimensions
	Vendor bitserializer.Optional[string]
}

func (w *Widget) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("sku", &w.SKU)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("price", &w.Price)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("tags", &w.Tags)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("size", &w.Size)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("vendor", &w.Vendor))
}

// NewWidget returns a canonical filled-in Widget for round-trip tests.
func NewWidget() *Widget {
	return &Widget{
		SKU:   "sku-42",
		Price: 19.99,
		Tags:  []string{"sale", "clearance"},
		Size:  Dimensions{WidthCM: 12.5, HeightCM: 7.25},
	}
}
