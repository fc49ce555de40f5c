package csv

import (
	"context"
	"strings"
	"testing"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

type quote struct {
	Symbol string
	Price  float64
	Volume int
	Active bool
}

func (q *quote) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("symbol", &q.Symbol)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("price", &q.Price)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("volume", &q.Volume)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("active", &q.Active))
}

func TestBackendSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := &quote{Symbol: "ACME", Price: 12.5, Volume: 1000, Active: true}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if !strings.Contains(string(data), "symbol,price,volume,active") {
		t.Fatalf("expected a header row, got %s", data)
	}

	out, err := bitserializer.LoadObject[quote](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if out.Symbol != in.Symbol || out.Price != in.Price || out.Volume != in.Volume || out.Active != in.Active {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestBackendPreservesFieldOrder(t *testing.T) {
	ctx := context.Background()
	in := &quote{Symbol: "WIDGET", Price: 1, Volume: 2, Active: false}
	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and a data row, got %d lines: %q", len(lines), data)
	}
	if lines[0] != "symbol,price,volume,active" {
		t.Fatalf("got header %q", lines[0])
	}
}

type requiredSymbol struct {
	Symbol string
}

func (r *requiredSymbol) Serialize(arc *bitserializer.Archive) error {
	return bitserializer.Serialize(arc, bitserializer.KV("symbol", &r.Symbol, bitserializer.WithValidators(bitserializer.Required[string]())))
}

func TestBackendReportsFailedValidation(t *testing.T) {
	ctx := context.Background()
	_, err := bitserializer.LoadObject[requiredSymbol](ctx, New(), []byte("other\nx\n"))
	if err == nil {
		t.Fatal("expected a FailedValidationError for the missing required field")
	}
	if _, ok := err.(*bitserializer.FailedValidationError); !ok {
		t.Fatalf("expected *FailedValidationError, got %T: %v", err, err)
	}
}

func TestBackendRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	_, err := bitserializer.LoadObject[quote](ctx, New(), []byte("symbol,price\nACME,12.5,extra\nanother,row\n"))
	if err == nil {
		t.Fatal("expected a ParsingError for a ragged CSV document")
	}
	if _, ok := err.(*bitserializer.ParsingError); !ok {
		t.Fatalf("expected *bitserializer.ParsingError, got %T: %v", err, err)
	}
}

type person struct {
	ID    uint64
	Name  string
	Email string
}

func (p *person) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("Id", &p.ID)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("Name", &p.Name)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("Email", &p.Email))
}

func TestBackendRoundTripsListOfRecords(t *testing.T) {
	ctx := context.Background()
	data := []byte("Id,Name,Email\n1,John Doe,john@example.com\n2,Alice,alice@example.com\n")

	out, err := bitserializer.LoadObject[[]person](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if len(*out) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(*out), *out)
	}
	want := []person{
		{ID: 1, Name: "John Doe", Email: "john@example.com"},
		{ID: 2, Name: "Alice", Email: "alice@example.com"},
	}
	for i, p := range want {
		if (*out)[i] != p {
			t.Fatalf("record %d: got %+v, want %+v", i, (*out)[i], p)
		}
	}

	roundTripped, err := bitserializer.SaveObject(ctx, New(), out)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(roundTripped)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and 2 data rows, got %d lines: %q", len(lines), roundTripped)
	}
	if lines[0] != "Id,Name,Email" {
		t.Fatalf("got header %q", lines[0])
	}
}

func TestArchiveType(t *testing.T) {
	if New().ArchiveType() != "csv" {
		t.Fatalf("got %q", New().ArchiveType())
	}
}
