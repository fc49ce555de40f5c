package bitserializer

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for facade-level operations (§6). Backends and the dispatch layer
// never emit directly; only the facade entry points do, independent of
// traversal depth. LoadObjectFromFile and SaveObjectToFile emit their file
// pair around the load/save pair of the LoadObject/SaveObject call they
// make, and SaveObjectTo emits only SaveObject's pair.
var (
	SignalLoadStart        = capitan.NewSignal("bitserializer.load.start", "LoadObject beginning")
	SignalLoadComplete     = capitan.NewSignal("bitserializer.load.complete", "LoadObject finished")
	SignalSaveStart        = capitan.NewSignal("bitserializer.save.start", "SaveObject beginning")
	SignalSaveComplete     = capitan.NewSignal("bitserializer.save.complete", "SaveObject finished")
	SignalLoadFileStart    = capitan.NewSignal("bitserializer.load_file.start", "LoadObjectFromFile beginning")
	SignalLoadFileComplete = capitan.NewSignal("bitserializer.load_file.complete", "LoadObjectFromFile finished")
	SignalSaveFileStart    = capitan.NewSignal("bitserializer.save_file.start", "SaveObjectToFile beginning")
	SignalSaveFileComplete = capitan.NewSignal("bitserializer.save_file.complete", "SaveObjectToFile finished")
)

// Keys for typed event data.
var (
	KeyArchiveType = capitan.NewStringKey("archive_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyPath        = capitan.NewStringKey("path")
	KeySize        = capitan.NewIntKey("size")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
	KeyFieldErrors = capitan.NewIntKey("field_error_count")
)

// emitLoadStart emits an event when LoadObject begins.
func emitLoadStart(ctx context.Context, archiveType, typeName string) {
	capitan.Emit(ctx, SignalLoadStart,
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
	)
}

// emitLoadComplete emits an event when LoadObject finishes.
func emitLoadComplete(ctx context.Context, archiveType, typeName string, duration time.Duration, fieldErrors int, err error) {
	fields := []capitan.Field{
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyFieldErrors.Field(fieldErrors),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalLoadComplete, fields...)
}

// emitSaveStart emits an event when SaveObject begins.
func emitSaveStart(ctx context.Context, archiveType, typeName string) {
	capitan.Emit(ctx, SignalSaveStart,
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
	)
}

// emitSaveComplete emits an event when SaveObject finishes.
func emitSaveComplete(ctx context.Context, archiveType, typeName string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSaveComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalSaveComplete, fields...)
}

// emitLoadFileStart emits an event when LoadObjectFromFile begins.
func emitLoadFileStart(ctx context.Context, archiveType, typeName, path string) {
	capitan.Emit(ctx, SignalLoadFileStart,
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeyPath.Field(path),
	)
}

// emitLoadFileComplete emits an event when LoadObjectFromFile finishes.
func emitLoadFileComplete(ctx context.Context, archiveType, typeName, path string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeyPath.Field(path),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadFileComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalLoadFileComplete, fields...)
}

// emitSaveFileStart emits an event when SaveObjectToFile begins.
func emitSaveFileStart(ctx context.Context, archiveType, typeName, path string) {
	capitan.Emit(ctx, SignalSaveFileStart,
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeyPath.Field(path),
	)
}

// emitSaveFileComplete emits an event when SaveObjectToFile finishes.
func emitSaveFileComplete(ctx context.Context, archiveType, typeName, path string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyArchiveType.Field(archiveType),
		KeyTypeName.Field(typeName),
		KeyPath.Field(path),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSaveFileComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalSaveFileComplete, fields...)
}
