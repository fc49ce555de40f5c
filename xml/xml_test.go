package xml

import (
	"context"
	"strings"
	"testing"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

type item struct {
	ID    string
	Price int
}

func (i *item) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.AttrKV("id", &i.ID)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("price", &i.Price))
}

type cart struct {
	Customer string
	Items    []item
}

func (c *cart) Serialize(arc *bitserializer.Archive) error {
	if err := bitserializer.Serialize(arc, bitserializer.KV("customer", &c.Customer)); err != nil {
		return err
	}
	return bitserializer.Serialize(arc, bitserializer.KV("items", &c.Items))
}

func TestBackendSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := &cart{
		Customer: "ada",
		Items: []item{
			{ID: "sku-1", Price: 100},
			{ID: "sku-2", Price: 250},
		},
	}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	if !strings.Contains(string(data), `id="sku-1"`) {
		t.Fatalf("expected an id attribute, got %s", data)
	}

	out, err := bitserializer.LoadObject[cart](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if out.Customer != "ada" || len(out.Items) != 2 {
		t.Fatalf("got %+v", out)
	}
	if out.Items[0].ID != "sku-1" || out.Items[0].Price != 100 {
		t.Fatalf("got items[0] = %+v", out.Items[0])
	}
	if out.Items[1].ID != "sku-2" || out.Items[1].Price != 250 {
		t.Fatalf("got items[1] = %+v", out.Items[1])
	}
}

func TestBackendEmptySliceRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := &cart{Customer: "grace"}

	data, err := bitserializer.SaveObject(ctx, New(), in)
	if err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	out, err := bitserializer.LoadObject[cart](ctx, New(), data)
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if len(out.Items) != 0 {
		t.Fatalf("expected no items, got %+v", out.Items)
	}
}

func TestBackendRejectsMalformedInput(t *testing.T) {
	ctx := context.Background()
	_, err := bitserializer.LoadObject[item](ctx, New(), []byte(`<root><id`))
	if err == nil {
		t.Fatal("expected a ParsingError for truncated XML")
	}
	if _, ok := err.(*bitserializer.ParsingError); !ok {
		t.Fatalf("expected *bitserializer.ParsingError, got %T: %v", err, err)
	}
}

func TestArchiveType(t *testing.T) {
	if New().ArchiveType() != "xml" {
		t.Fatalf("got %q", New().ArchiveType())
	}
}
