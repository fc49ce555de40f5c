package bitserializer

import (
	"context"
	"os"
	"reflect"
	"time"
)

// Backend is implemented by each format package (json, xml, yaml, msgpack,
// csv). Each method binds a RootScope to a byte sink/source for exactly one
// Load or Save operation; the facade owns the Context and Options for the
// operation's lifetime and never reuses either across calls (§5).
type Backend interface {
	// ArchiveType is a short, stable tag such as "json" or "msgpack", used in
	// signal payloads and error messages.
	ArchiveType() string

	// NewLoadScope returns a RootScope for reading data from data.
	NewLoadScope(data []byte, ctx *Context, opts *Options) (RootScope, error)

	// NewSaveScope returns a RootScope for writing a new document.
	NewSaveScope(ctx *Context, opts *Options) RootScope

	// Render serializes scope's accumulated tree to bytes. Save only; called
	// after the root value has been fully written and scope.Close()'d.
	Render(scope RootScope) ([]byte, error)
}

// LoadObject deserializes data into a new *T using backend, running the full
// Validator/Refiner/Fallback pipeline and returning a FailedValidationError
// if any validator reported a failure (§4.6/§4.7).
func LoadObject[T any](ctx context.Context, backend Backend, data []byte, opts ...Options) (*T, error) {
	options := resolveOptions(opts)
	archiveType, tname := backend.ArchiveType(), typeName[T]()
	started := time.Now()
	emitLoadStart(ctx, archiveType, tname)

	sctx := NewContext()
	scope, err := backend.NewLoadScope(data, sctx, &options)
	if err != nil {
		emitLoadComplete(ctx, archiveType, tname, time.Since(started), 0, err)
		return nil, err
	}

	var value T
	arc := NewArchive(scope)
	if err := SerializeElement(arc, &value); err != nil {
		emitLoadComplete(ctx, archiveType, tname, time.Since(started), 0, err)
		return nil, err
	}
	if err := scope.Close(); err != nil {
		emitLoadComplete(ctx, archiveType, tname, time.Since(started), 0, err)
		return nil, err
	}

	if sctx.HasErrors() {
		fields := sctx.FieldErrors()
		err := NewFailedValidationError(fields)
		emitLoadComplete(ctx, archiveType, tname, time.Since(started), len(fields), err)
		return nil, err
	}

	emitLoadComplete(ctx, archiveType, tname, time.Since(started), 0, nil)
	return &value, nil
}

// SaveObject serializes value using backend and returns the rendered bytes.
func SaveObject[T any](ctx context.Context, backend Backend, value *T, opts ...Options) ([]byte, error) {
	options := resolveOptions(opts)
	archiveType, tname := backend.ArchiveType(), typeName[T]()
	started := time.Now()
	emitSaveStart(ctx, archiveType, tname)

	sctx := NewContext()
	scope := backend.NewSaveScope(sctx, &options)
	arc := NewArchive(scope)
	if err := SerializeElement(arc, value); err != nil {
		emitSaveComplete(ctx, archiveType, tname, 0, time.Since(started), err)
		return nil, err
	}
	if err := scope.Close(); err != nil {
		emitSaveComplete(ctx, archiveType, tname, 0, time.Since(started), err)
		return nil, err
	}
	if err := scope.Finalize(); err != nil {
		emitSaveComplete(ctx, archiveType, tname, 0, time.Since(started), err)
		return nil, err
	}

	out, err := backend.Render(scope)
	if err != nil {
		emitSaveComplete(ctx, archiveType, tname, 0, time.Since(started), err)
		return nil, err
	}

	emitSaveComplete(ctx, archiveType, tname, len(out), time.Since(started), nil)
	return out, nil
}

// SaveObjectTo serializes value using backend and writes the rendered bytes
// to w.
func SaveObjectTo[T any](ctx context.Context, backend Backend, w writerTo, value *T, opts ...Options) error {
	out, err := SaveObject(ctx, backend, value, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// writerTo is the minimal io.Writer surface SaveObjectTo needs, named
// locally so this file has no unused stdlib "io" import when callers pass a
// concrete type like *os.File or *bytes.Buffer.
type writerTo interface {
	Write(p []byte) (int, error)
}

// LoadObjectFromFile reads path and deserializes it into a new *T using
// backend. Go's os package has uniform binary-safe file semantics on every
// platform, so unlike the original C++ engine no separate "binary mode on
// Windows" flag is needed here (§4.7).
func LoadObjectFromFile[T any](ctx context.Context, backend Backend, path string, opts ...Options) (*T, error) {
	archiveType, tname := backend.ArchiveType(), typeName[T]()
	started := time.Now()
	emitLoadFileStart(ctx, archiveType, tname, path)

	data, err := os.ReadFile(path)
	if err != nil {
		ioErr := NewInputOutputError(path, err)
		emitLoadFileComplete(ctx, archiveType, tname, path, time.Since(started), ioErr)
		return nil, ioErr
	}

	value, err := LoadObject[T](ctx, backend, data, opts...)
	emitLoadFileComplete(ctx, archiveType, tname, path, time.Since(started), err)
	return value, err
}

// SaveObjectToFile serializes value using backend and writes it to path.
// overwrite=false uses os.O_EXCL so an existing file is never silently
// clobbered; overwrite=true truncates and replaces it.
func SaveObjectToFile[T any](ctx context.Context, backend Backend, path string, value *T, overwrite bool, opts ...Options) error {
	archiveType, tname := backend.ArchiveType(), typeName[T]()
	started := time.Now()
	emitSaveFileStart(ctx, archiveType, tname, path)

	out, err := SaveObject(ctx, backend, value, opts...)
	if err != nil {
		emitSaveFileComplete(ctx, archiveType, tname, path, 0, time.Since(started), err)
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		ioErr := NewInputOutputError(path, err)
		emitSaveFileComplete(ctx, archiveType, tname, path, 0, time.Since(started), ioErr)
		return ioErr
	}
	defer f.Close()

	if _, err := f.Write(out); err != nil {
		ioErr := NewInputOutputError(path, err)
		emitSaveFileComplete(ctx, archiveType, tname, path, 0, time.Since(started), ioErr)
		return ioErr
	}

	emitSaveFileComplete(ctx, archiveType, tname, path, len(out), time.Since(started), nil)
	return nil
}

func resolveOptions(opts []Options) Options {
	if len(opts) > 0 {
		return opts[0]
	}
	return DefaultOptions()
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
