package json

import (
	"context"
	"strings"
	"testing"
	"time"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

type address struct {
	City string
	Zip  string
}

func (a *address) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("city", &a.City)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("zip", &a.Zip))
}

type person struct {
	Name    string
	Age     int
	Tags    []string
	Home    address
	Nick    bitserializer.Optional[string]
}

func (p *person) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("name", &p.Name)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("age", &p.Age)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("tags", &p.Tags)); err != nil {
		return err
	}
	if err := bitserializer.Serialize(arc, bitserializer.KV("home", &p.Home)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("nickname", &p.Nick))
}

func TestBackendSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := &person{
		Name: "ada",
		Age:  36,
		Tags: []string{"math", "engine"},
		Home: address{City: "London", Zip: "SW1"},
		Nick: bitserializer.Some("countess"),
	}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}

	out, err := bitserializer.LoadObject[person](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}

	if out.Name != in.Name || out.Age != in.Age || out.Home.City != in.Home.City {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
	if len(out.Tags) != 2 || out.Tags[0] != "math" || out.Tags[1] != "engine" {
		t.Fatalf("tags mismatch: %+v", out.Tags)
	}
	if !out.Nick.Valid || out.Nick.Value != "countess" {
		t.Fatalf("optional mismatch: %+v", out.Nick)
	}
}

func TestBackendWritesNullForAbsentOptional(t *testing.T) {
	ctx := context.Background()
	in := &person{Name: "grace", Age: 28, Home: address{City: "NYC", Zip: "10001"}}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if !strings.Contains(string(data), `"nickname":null`) {
		t.Fatalf("expected an explicit null for the absent optional, got %s", data)
	}

	out, err := bitserializer.LoadObject[person](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if out.Nick.Valid {
		t.Fatalf("expected Nick to stay absent, got %+v", out.Nick)
	}
}

func TestBackendPrettyPrintsWhenFormatEnabled(t *testing.T) {
	ctx := context.Background()
	in := &address{City: "Paris", Zip: "75001"}
	opts := bitserializer.DefaultOptions()
	opts.Format.EnableFormat = true

	data, err := bitserializer.SaveObject(ctx, New(), in, opts)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Fatalf("expected pretty-printed output to contain newlines, got %s", data)
	}
}

type requiredName struct {
	Name string
}

func (r *requiredName) Serialize(arc *bitserializer.Archive) error {
	return bitserializer.Serialize(arc, bitserializer.KV("name", &r.Name, bitserializer.WithValidators(bitserializer.Required[string]())))
}

func TestBackendReportsFailedValidation(t *testing.T) {
	ctx := context.Background()
	_, err := bitserializer.LoadObject[requiredName](ctx, New(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected a FailedValidationError for the missing required field")
	}
	if _, ok := err.(*bitserializer.FailedValidationError); !ok {
		t.Fatalf("expected *FailedValidationError, got %T: %v", err, err)
	}
}

func TestBackendRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	_, err := bitserializer.LoadObject[address](ctx, New(), []byte(`{"city": `))
	if err == nil {
		t.Fatal("expected a ParsingError for truncated JSON")
	}
	if _, ok := err.(*bitserializer.ParsingError); !ok {
		t.Fatalf("expected *bitserializer.ParsingError, got %T: %v", err, err)
	}
}

func TestBackendPreservesKeyOrder(t *testing.T) {
	ctx := context.Background()
	in := &address{City: "Berlin", Zip: "10115"}
	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if got := string(data); got != `{"city":"Berlin","zip":"10115"}` {
		t.Fatalf("got %s", got)
	}
}

type schedule struct {
	Start time.Time
	Lease time.Duration
}

func (s *schedule) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("start", &s.Start)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("lease", &s.Lease))
}

// JSON is not a binary backend, so time.Time/time.Duration must round trip
// through their ISO-8601 text form rather than BinTimestamp.
func TestBackendRoundTripsTimeAsISO8601Text(t *testing.T) {
	ctx := context.Background()
	in := &schedule{
		Start: time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC),
		Lease: 90 * time.Minute,
	}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if !strings.Contains(string(data), `"start":"2024-03-05T14:30:00`) {
		t.Fatalf("expected an ISO-8601 date-time string, got %s", data)
	}
	if !strings.Contains(string(data), `"lease":"PT1H30M"`) {
		t.Fatalf("expected an ISO-8601 duration string, got %s", data)
	}

	out, err := bitserializer.LoadObject[schedule](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if !out.Start.Equal(in.Start) {
		t.Fatalf("got start %v, want %v", out.Start, in.Start)
	}
	if out.Lease != in.Lease {
		t.Fatalf("got lease %v, want %v", out.Lease, in.Lease)
	}
}

func TestArchiveType(t *testing.T) {
	if New().ArchiveType() != "json" {
		t.Fatalf("got %q", New().ArchiveType())
	}
}
