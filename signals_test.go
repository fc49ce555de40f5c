package bitserializer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitLoadStart(_ *testing.T) {
	emitLoadStart(context.Background(), "json", "TestType")
}

func TestEmitLoadComplete_Success(_ *testing.T) {
	emitLoadComplete(context.Background(), "json", "TestType", 100*time.Millisecond, 0, nil)
}

func TestEmitLoadComplete_WithFieldErrors(_ *testing.T) {
	emitLoadComplete(context.Background(), "json", "TestType", 100*time.Millisecond, 2, errors.New("validation failed"))
}

func TestEmitSaveStart(_ *testing.T) {
	emitSaveStart(context.Background(), "json", "TestType")
}

func TestEmitSaveComplete_Success(_ *testing.T) {
	emitSaveComplete(context.Background(), "json", "TestType", 1024, 100*time.Millisecond, nil)
}

func TestEmitSaveComplete_Error(_ *testing.T) {
	emitSaveComplete(context.Background(), "json", "TestType", 0, 100*time.Millisecond, errors.New("test error"))
}

func TestEmitLoadFileStart(_ *testing.T) {
	emitLoadFileStart(context.Background(), "yaml", "TestType", "/tmp/test.yaml")
}

func TestEmitLoadFileComplete_Success(_ *testing.T) {
	emitLoadFileComplete(context.Background(), "yaml", "TestType", "/tmp/test.yaml", 100*time.Millisecond, nil)
}

func TestEmitLoadFileComplete_Error(_ *testing.T) {
	emitLoadFileComplete(context.Background(), "yaml", "TestType", "/tmp/test.yaml", 100*time.Millisecond, errors.New("no such file"))
}

func TestEmitSaveFileStart(_ *testing.T) {
	emitSaveFileStart(context.Background(), "xml", "TestType", "/tmp/test.xml")
}

func TestEmitSaveFileComplete_Success(_ *testing.T) {
	emitSaveFileComplete(context.Background(), "xml", "TestType", "/tmp/test.xml", 512, 100*time.Millisecond, nil)
}

func TestEmitSaveFileComplete_Error(_ *testing.T) {
	emitSaveFileComplete(context.Background(), "xml", "TestType", "/tmp/test.xml", 0, 100*time.Millisecond, errors.New("permission denied"))
}

func TestSignalVariables(t *testing.T) {
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalLoadStart", SignalLoadStart},
		{"SignalLoadComplete", SignalLoadComplete},
		{"SignalSaveStart", SignalSaveStart},
		{"SignalSaveComplete", SignalSaveComplete},
		{"SignalLoadFileStart", SignalLoadFileStart},
		{"SignalLoadFileComplete", SignalLoadFileComplete},
		{"SignalSaveFileStart", SignalSaveFileStart},
		{"SignalSaveFileComplete", SignalSaveFileComplete},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}

func TestKeyVariables(t *testing.T) {
	keys := []struct {
		name string
		key  interface{}
	}{
		{"KeyArchiveType", KeyArchiveType},
		{"KeyTypeName", KeyTypeName},
		{"KeyPath", KeyPath},
		{"KeySize", KeySize},
		{"KeyDuration", KeyDuration},
		{"KeyError", KeyError},
		{"KeyFieldErrors", KeyFieldErrors},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}
