package benchmarks

import (
	"context"
	"testing"

	bitserializer "github.com/bitserializer/bitserializer-go"
	"github.com/bitserializer/bitserializer-go/json"
	codectest "github.com/bitserializer/bitserializer-go/testing"
)

func BenchmarkSaveObject_JSON_Contact(b *testing.B) {
	ctx := context.Background()
	user := codectest.NewContact()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bitserializer.SaveObject(ctx, json.New(), user)
	}
}

func BenchmarkLoadObject_JSON_Contact(b *testing.B) {
	ctx := context.Background()
	user := codectest.NewContact()
	data, err := bitserializer.SaveObject(ctx, json.New(), user)
	if err != nil {
		b.Fatalf("SaveObject: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bitserializer.LoadObject[codectest.Contact](ctx, json.New(), data)
	}
}

func BenchmarkSaveObject_JSON_Widget(b *testing.B) {
	ctx := context.Background()
	widget := codectest.NewWidget()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bitserializer.SaveObject(ctx, json.New(), widget)
	}
}

func BenchmarkLoadObject_JSON_Widget(b *testing.B) {
	ctx := context.Background()
	widget := codectest.NewWidget()
	data, err := bitserializer.SaveObject(ctx, json.New(), widget)
	if err != nil {
		b.Fatalf("SaveObject: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bitserializer.LoadObject[codectest.Widget](ctx, json.New(), data)
	}
}
