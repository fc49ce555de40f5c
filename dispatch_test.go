package bitserializer

import (
	"sync/atomic"
	"testing"
)

// fakeTraits is shared by every scope in the in-memory test backend below.
var fakeTraits = Traits{ArchiveType: "fake"}

// fakeNode is a minimal tree node: exactly one of value/obj/arr is set.
type fakeNode struct {
	value any
	obj   map[string]*fakeNode
	keys  []string
	arr   []*fakeNode
}

type fakeScope struct {
	node *fakeNode
	mode Mode
	ctx  *Context
	opts *Options
	path string
}

func (s *fakeScope) Path() string     { return s.path }
func (s *fakeScope) Context() *Context { return s.ctx }
func (s *fakeScope) Options() *Options { return s.opts }
func (s *fakeScope) Mode() Mode         { return s.mode }
func (s *fakeScope) Traits() Traits     { return fakeTraits }
func (s *fakeScope) Close() error       { return nil }
func (s *fakeScope) Finalize() error    { return nil }

func (s *fakeScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

// fakeObjectScope is an ObjectScope that also satisfies RootScope (via
// fakeScope's Finalize), so tests can call Serialize directly against it as
// an already-open root object. It has only the keyed OpenObjectScope/
// OpenArrayScope, so it does not implement ObjectOpener/ArrayOpener.
type fakeObjectScope struct {
	fakeScope
}

func newFakeRoot(mode Mode, node *fakeNode) *fakeObjectScope {
	if node == nil {
		node = &fakeNode{}
	}
	return &fakeObjectScope{fakeScope{node: node, mode: mode, ctx: NewContext(), opts: newTestOptions()}}
}

func newTestOptions() *Options {
	o := DefaultOptions()
	return &o
}

func (s *fakeObjectScope) get(key string) (*fakeNode, bool) {
	if s.node.obj == nil {
		return nil, false
	}
	n, ok := s.node.obj[key]
	return n, ok
}

func (s *fakeObjectScope) put(key string) *fakeNode {
	if s.node.obj == nil {
		s.node.obj = make(map[string]*fakeNode)
	}
	if _, exists := s.node.obj[key]; !exists {
		s.node.keys = append(s.node.keys, key)
	}
	n := &fakeNode{}
	s.node.obj[key] = n
	return n
}

func (s *fakeObjectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == ModeSave {
		n := s.put(key)
		n.value = derefAny(ptr)
		return true, nil
	}
	n, ok := s.get(key)
	if !ok || n.value == nil {
		return false, nil
	}
	return true, assignInto(ptr, n.value)
}

func (s *fakeObjectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == ModeSave {
		n := s.put(key)
		n.value = *ptr
		return true, nil
	}
	n, ok := s.get(key)
	if !ok || n.value == nil {
		return false, nil
	}
	str, ok := n.value.(string)
	if !ok {
		return false, NewMismatchedTypesError(s.childPath(key), "not a string")
	}
	*ptr = str
	return true, nil
}

func (s *fakeObjectScope) OpenObjectScope(key string, nFieldsHint int) (ObjectScope, bool) {
	if s.mode == ModeSave {
		n := s.put(key)
		n.obj = make(map[string]*fakeNode)
		return &fakeObjectScope{fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.childPath(key)}}, true
	}
	n, ok := s.get(key)
	if !ok || n.obj == nil {
		return nil, false
	}
	return &fakeObjectScope{fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.childPath(key)}}, true
}

func (s *fakeObjectScope) OpenArrayScope(key string, size int) (ArrayScope, bool) {
	if s.mode == ModeSave {
		n := s.put(key)
		n.arr = make([]*fakeNode, 0, size)
		return &fakeArrayScope{fakeScope: fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.childPath(key)}}, true
	}
	n, ok := s.get(key)
	if !ok || n.arr == nil {
		return nil, false
	}
	return &fakeArrayScope{fakeScope: fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.childPath(key)}}, true
}

func (s *fakeObjectScope) OpenAttributeScope() (ObjectScope, bool) {
	return s, true
}

func (s *fakeObjectScope) VisitKeys(fn func(key string) error) error {
	for _, k := range s.node.keys {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeObjectScope) EstimatedSize() int { return len(s.node.keys) }

type fakeArrayScope struct {
	fakeScope
	pos int
}

func (s *fakeArrayScope) Value(ptr any) (bool, error) {
	if s.mode == ModeSave {
		s.node.arr = append(s.node.arr, &fakeNode{value: derefAny(ptr)})
		return true, nil
	}
	if s.pos >= len(s.node.arr) {
		return false, nil
	}
	n := s.node.arr[s.pos]
	s.pos++
	return true, assignInto(ptr, n.value)
}

func (s *fakeArrayScope) String(ptr *string) (bool, error) {
	if s.mode == ModeSave {
		s.node.arr = append(s.node.arr, &fakeNode{value: *ptr})
		return true, nil
	}
	if s.pos >= len(s.node.arr) {
		return false, nil
	}
	n := s.node.arr[s.pos]
	s.pos++
	str, ok := n.value.(string)
	if !ok {
		return false, NewMismatchedTypesError(s.path, "not a string")
	}
	*ptr = str
	return true, nil
}

func (s *fakeArrayScope) OpenObjectScope(nFieldsHint int) (ObjectScope, bool) {
	if s.mode == ModeSave {
		n := &fakeNode{obj: make(map[string]*fakeNode)}
		s.node.arr = append(s.node.arr, n)
		return &fakeObjectScope{fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.path}}, true
	}
	if s.pos >= len(s.node.arr) {
		return nil, false
	}
	n := s.node.arr[s.pos]
	s.pos++
	return &fakeObjectScope{fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.path}}, true
}

func (s *fakeArrayScope) OpenArrayScope(size int) (ArrayScope, bool) {
	if s.mode == ModeSave {
		n := &fakeNode{arr: make([]*fakeNode, 0, size)}
		s.node.arr = append(s.node.arr, n)
		return &fakeArrayScope{fakeScope: fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.path}}, true
	}
	if s.pos >= len(s.node.arr) {
		return nil, false
	}
	n := s.node.arr[s.pos]
	s.pos++
	return &fakeArrayScope{fakeScope: fakeScope{node: n, mode: s.mode, ctx: s.ctx, opts: s.opts, path: s.path}}, true
}

func (s *fakeArrayScope) IsEnd() bool       { return s.pos >= len(s.node.arr) }
func (s *fakeArrayScope) Size() int         { return len(s.node.arr) }
func (s *fakeArrayScope) EstimatedSize() int { return len(s.node.arr) }

func derefAny(ptr any) any {
	switch v := ptr.(type) {
	case *bool:
		return *v
	case *int:
		return *v
	case *int8:
		return *v
	case *int16:
		return *v
	case *int32:
		return *v
	case *int64:
		return *v
	case *uint:
		return *v
	case *uint8:
		return *v
	case *uint16:
		return *v
	case *uint32:
		return *v
	case *uint64:
		return *v
	case *float32:
		return *v
	case *float64:
		return *v
	case *any:
		return *v
	default:
		return nil
	}
}

func assignInto(ptr any, value any) error {
	switch v := ptr.(type) {
	case *bool:
		b, ok := value.(bool)
		if !ok {
			return NewMismatchedTypesError("", "expected bool")
		}
		*v = b
	case *int:
		*v = int(toInt64(value))
	case *int8:
		*v = int8(toInt64(value))
	case *int16:
		*v = int16(toInt64(value))
	case *int32:
		*v = int32(toInt64(value))
	case *int64:
		*v = toInt64(value)
	case *uint:
		*v = uint(toInt64(value))
	case *uint8:
		*v = uint8(toInt64(value))
	case *uint16:
		*v = uint16(toInt64(value))
	case *uint32:
		*v = uint32(toInt64(value))
	case *uint64:
		*v = uint64(toInt64(value))
	case *float32:
		*v = float32(toFloat64(value))
	case *float64:
		*v = toFloat64(value)
	case *any:
		*v = value
	default:
		return NewMismatchedTypesError("", "unsupported target")
	}
	return nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// --- tests ---

func TestDispatchPrimitivesRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	name := "ada"
	age := 37
	if err := Serialize(saveArc, KV("name", &name)); err != nil {
		t.Fatalf("save name: %v", err)
	}
	if err := Serialize(saveArc, KV("age", &age)); err != nil {
		t.Fatalf("save age: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var gotName string
	var gotAge int
	if err := Serialize(loadArc, KV("name", &gotName)); err != nil {
		t.Fatalf("load name: %v", err)
	}
	if err := Serialize(loadArc, KV("age", &gotAge)); err != nil {
		t.Fatalf("load age: %v", err)
	}
	if gotName != "ada" || gotAge != 37 {
		t.Fatalf("got %q/%d, want ada/37", gotName, gotAge)
	}
}

func TestDispatchPathRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	p := Path("/etc/bitserializer.conf")
	if err := Serialize(saveArc, KV("path", &p)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Path
	if err := Serialize(loadArc, KV("path", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != p {
		t.Fatalf("got %q, want %q", got, p)
	}
	if got.String() != string(p) {
		t.Fatalf("String() = %q, want %q", got.String(), string(p))
	}
}

func TestDispatchFallback(t *testing.T) {
	node := &fakeNode{}
	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var count int
	if err := Serialize(loadArc, KV("count", &count, WithFallback(42))); err != nil {
		t.Fatalf("load with fallback: %v", err)
	}
	if count != 42 {
		t.Fatalf("got %d, want 42 (fallback)", count)
	}
}

func TestDispatchValidatorAccumulatesErrors(t *testing.T) {
	node := &fakeNode{}
	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var email string
	if err := Serialize(loadArc, KV("email", &email, WithValidators(Required[string]()))); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !loadArc.Context().HasErrors() {
		t.Fatal("expected Required validator to record an error for an absent field")
	}
}

func TestDispatchRefinersRunOnLoadAndSave(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	name := "  Ada  "
	if err := Serialize(saveArc, KV("name", &name, WithRefiners(TrimWhitespace()))); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got string
	if err := Serialize(loadArc, KV("name", &got, WithRefiners(ToLowerCase()))); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "ada" {
		t.Fatalf("got %q, want %q", got, "ada")
	}
}

type color int

const (
	colorRed color = iota
	colorGreen
)

func TestDispatchEnumRoundTrip(t *testing.T) {
	if err := RegisterEnum(map[color]string{colorRed: "red", colorGreen: "green"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	c := colorGreen
	if err := Serialize(saveArc, KV("color", &c)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got color
	if err := Serialize(loadArc, KV("color", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != colorGreen {
		t.Fatalf("got %v, want %v", got, colorGreen)
	}
}

func TestDispatchPairRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	p := Pair[string, int]{First: "x", Second: 1}
	if err := Serialize(saveArc, KV("p", &p)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Pair[string, int]
	if err := Serialize(loadArc, KV("p", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.First != "x" || got.Second != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestDispatchTuple2RoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	tup := Tuple2[string, int]{V1: "x", V2: 9}
	if err := Serialize(saveArc, KV("t", &tup)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Tuple2[string, int]
	if err := Serialize(loadArc, KV("t", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.V1 != "x" || got.V2 != 9 {
		t.Fatalf("got %+v", got)
	}
}

func TestDispatchTuple3RoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	tup := Tuple3[string, int, bool]{V1: "x", V2: 9, V3: true}
	if err := Serialize(saveArc, KV("t", &tup)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Tuple3[string, int, bool]
	if err := Serialize(loadArc, KV("t", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.V1 != "x" || got.V2 != 9 || got.V3 != true {
		t.Fatalf("got %+v", got)
	}
}

func TestDispatchTuple4RoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	tup := Tuple4[string, int, bool, float64]{V1: "x", V2: 9, V3: true, V4: 2.5}
	if err := Serialize(saveArc, KV("t", &tup)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Tuple4[string, int, bool, float64]
	if err := Serialize(loadArc, KV("t", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.V1 != "x" || got.V2 != 9 || got.V3 != true || got.V4 != 2.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestDispatchMultiMapRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	var mm MultiMap[string, int]
	mm.Add("a", 1)
	mm.Add("a", 2)
	mm.Add("b", 3)
	if err := Serialize(saveArc, KV("mm", &mm)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got MultiMap[string, int]
	if err := Serialize(loadArc, KV("mm", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(got.Entries), got.Entries)
	}
	if got.Entries[0].First != "a" || got.Entries[0].Second != 1 ||
		got.Entries[1].First != "a" || got.Entries[1].Second != 2 ||
		got.Entries[2].First != "b" || got.Entries[2].Second != 3 {
		t.Fatalf("got %+v, want duplicate key 'a' preserved in archive order", got.Entries)
	}
}

func TestDispatchCTimeRefRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	c := CTimeRef{Seconds: 1700000000}
	if err := Serialize(saveArc, KV("c", &c)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got CTimeRef
	if err := Serialize(loadArc, KV("c", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Seconds != c.Seconds {
		t.Fatalf("got %d, want %d", got.Seconds, c.Seconds)
	}
}

func TestDispatchAtomicRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)

	var i32 atomic.Int32
	i32.Store(-7)
	var i64 atomic.Int64
	i64.Store(-70000000000)
	var u32 atomic.Uint32
	u32.Store(7)
	var u64 atomic.Uint64
	u64.Store(70000000000)
	var b atomic.Bool
	b.Store(true)

	if err := Serialize(saveArc, KV("i32", &i32)); err != nil {
		t.Fatalf("save i32: %v", err)
	}
	if err := Serialize(saveArc, KV("i64", &i64)); err != nil {
		t.Fatalf("save i64: %v", err)
	}
	if err := Serialize(saveArc, KV("u32", &u32)); err != nil {
		t.Fatalf("save u32: %v", err)
	}
	if err := Serialize(saveArc, KV("u64", &u64)); err != nil {
		t.Fatalf("save u64: %v", err)
	}
	if err := Serialize(saveArc, KV("b", &b)); err != nil {
		t.Fatalf("save b: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var gi32 atomic.Int32
	var gi64 atomic.Int64
	var gu32 atomic.Uint32
	var gu64 atomic.Uint64
	var gb atomic.Bool
	if err := Serialize(loadArc, KV("i32", &gi32)); err != nil {
		t.Fatalf("load i32: %v", err)
	}
	if err := Serialize(loadArc, KV("i64", &gi64)); err != nil {
		t.Fatalf("load i64: %v", err)
	}
	if err := Serialize(loadArc, KV("u32", &gu32)); err != nil {
		t.Fatalf("load u32: %v", err)
	}
	if err := Serialize(loadArc, KV("u64", &gu64)); err != nil {
		t.Fatalf("load u64: %v", err)
	}
	if err := Serialize(loadArc, KV("b", &gb)); err != nil {
		t.Fatalf("load b: %v", err)
	}
	if gi32.Load() != -7 || gi64.Load() != -70000000000 || gu32.Load() != 7 || gu64.Load() != 70000000000 || !gb.Load() {
		t.Fatalf("got %d/%d/%d/%d/%v", gi32.Load(), gi64.Load(), gu32.Load(), gu64.Load(), gb.Load())
	}
}

func TestDispatchOptionalRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	present := Some(7)
	if err := Serialize(saveArc, KV("n", &present)); err != nil {
		t.Fatalf("save present: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got Optional[int]
	if err := Serialize(loadArc, KV("n", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Valid || got.Value != 7 {
		t.Fatalf("got %+v, want Some(7)", got)
	}

	// absent field loads as an invalid Optional with no fallback.
	var absent Optional[int]
	if err := Serialize(loadArc, KV("missing", &absent)); err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if absent.Valid {
		t.Fatalf("got %+v, want invalid", absent)
	}
}

func TestDispatchSliceRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	xs := []int{1, 2, 3}
	if err := Serialize(saveArc, KV("xs", &xs)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got []int
	if err := Serialize(loadArc, KV("xs", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestDispatchFixedArrayRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	arr := [3]int{1, 2, 3}
	if err := Serialize(saveArc, KV("arr", &arr)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got [3]int
	if err := Serialize(loadArc, KV("arr", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != arr {
		t.Fatalf("got %v, want %v", got, arr)
	}
}

func TestDispatchMapRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	m := map[string]int{"a": 1, "b": 2}
	if err := Serialize(saveArc, KV("m", &m)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got map[string]int
	if err := Serialize(loadArc, KV("m", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestDispatchSetRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	set := map[string]struct{}{"a": {}, "b": {}}
	if err := Serialize(saveArc, KV("s", &set)); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A set must serialize as an array scope (bare elements in archive
	// order), never as an object scope of key->true.
	member, ok := saveRoot.get("s")
	if !ok {
		t.Fatalf("key %q not written", "s")
	}
	if member.obj != nil {
		t.Fatalf("set serialized as an object scope, want array: %+v", member.obj)
	}
	if len(member.arr) != 2 {
		t.Fatalf("got %d array elements, want 2: %+v", len(member.arr), member.arr)
	}
	seen := map[string]bool{}
	for _, el := range member.arr {
		s, ok := el.value.(string)
		if !ok {
			t.Fatalf("array element %+v is not a bare string", el)
		}
		seen[s] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("got elements %v, want a and b", seen)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got map[string]struct{}
	if err := Serialize(loadArc, KV("s", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got["a"]; !ok {
		t.Fatalf("got %v, missing a", got)
	}
	if _, ok := got["b"]; !ok {
		t.Fatalf("got %v, missing b", got)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(got), got)
	}
}

func TestDispatchPointerRoundTrip(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	val := 5
	ptr := &val
	if err := Serialize(saveArc, KV("p", &ptr)); err != nil {
		t.Fatalf("save: %v", err)
	}

	loadRoot := newFakeRoot(ModeLoad, node)
	loadArc := NewArchive(loadRoot)
	var got *int
	if err := Serialize(loadArc, KV("p", &got)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || *got != 5 {
		t.Fatalf("got %v, want pointer to 5", got)
	}
}

func TestDispatchAmbiguousSerializerRejected(t *testing.T) {
	node := &fakeNode{}
	saveRoot := newFakeRoot(ModeSave, node)
	saveArc := NewArchive(saveRoot)
	v := ambiguousAggregate{}
	err := Serialize(saveArc, KV("v", &v))
	if err == nil {
		t.Fatal("expected an error for a type implementing both Serializer and ArraySerializer")
	}
}

type ambiguousAggregate struct{}

func (a *ambiguousAggregate) Serialize(arc *Archive) error      { return nil }
func (a *ambiguousAggregate) SerializeArray(arc *Archive) error { return nil }
