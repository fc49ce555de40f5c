// Package msgpack is the MessagePack Backend: the only binary format in
// this module (Traits.IsBinary true). Like the json package, it decodes
// eagerly into an in-memory tree rather than driving the Scope Protocol
// straight off the wire, because Save needs every object's field count
// before it can write that object's map-length header — MessagePack has no
// indefinite-length map the way JSON/XML have an open-ended object. A fully
// built tree means that count is always known by the time Render walks it.
package msgpack

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

var traits = bitserializer.Traits{
	PathSeparator: '/',
	IsBinary:      true,
	ArchiveType:   "msgpack",
}

// Backend implements bitserializer.Backend for MessagePack.
type Backend struct{}

// New returns a MessagePack Backend.
func New() bitserializer.Backend { return Backend{} }

func (Backend) ArchiveType() string { return "msgpack" }

func (Backend) NewSaveScope(ctx *bitserializer.Context, opts *bitserializer.Options) bitserializer.RootScope {
	return &rootScope{mpScope{ctx: ctx, opts: opts, mode: bitserializer.ModeSave}, &mpNode{kind: mpNull}}
}

func (Backend) NewLoadScope(data []byte, ctx *bitserializer.Context, opts *bitserializer.Options) (bitserializer.RootScope, error) {
	node, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &rootScope{mpScope{ctx: ctx, opts: opts, mode: bitserializer.ModeLoad}, node}, nil
}

func (Backend) Render(scope bitserializer.RootScope) ([]byte, error) {
	root, ok := scope.(*rootScope)
	if !ok {
		return nil, bitserializer.NewParsingError("msgpack: Render called with a scope this backend did not create")
	}
	var buf bytes.Buffer
	if err := encodeNode(msgpack.NewEncoder(&buf), root.node); err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	return buf.Bytes(), nil
}

// mpValueKind discriminates the union stored in an mpNode. MessagePack
// distinguishes signed/unsigned integers and 32/64-bit floats at the wire
// level, so unlike jsonNode this keeps them as separate kinds rather than
// normalizing through a single number representation.
type mpValueKind int

const (
	mpNull mpValueKind = iota
	mpBool
	mpInt
	mpUint
	mpFloat32
	mpFloat64
	mpString
	mpBytes
	mpTime
	mpObject
	mpArray
)

type mpNode struct {
	kind    mpValueKind
	boolVal bool
	i64     int64
	u64     uint64
	f32     float32
	f64     float64
	str     string
	bytes   []byte
	tm      time.Time
	keys    []string
	fields  map[string]*mpNode
	elems   []*mpNode
}

func (n *mpNode) put(key string, child *mpNode) {
	if _, exists := n.fields[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

type mpScope struct {
	ctx  *bitserializer.Context
	opts *bitserializer.Options
	mode bitserializer.Mode
	path string
}

func (s mpScope) Path() string                    { return s.path }
func (s mpScope) Context() *bitserializer.Context { return s.ctx }
func (s mpScope) Options() *bitserializer.Options { return s.opts }
func (s mpScope) Mode() bitserializer.Mode        { return s.mode }
func (s mpScope) Traits() bitserializer.Traits    { return traits }
func (s mpScope) Close() error                    { return nil }

func (s mpScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

func (s mpScope) indexPath(i int) string { return s.childPath(fmt.Sprintf("%d", i)) }

// rootScope is kept distinct from objectScope for the same reason the other
// backends in this module are: the unkeyed root Open*Scope arities and the
// keyed ObjectScope/ArrayScope ones share a name but not a signature, and
// embedding would silently satisfy the wrong one.
type rootScope struct {
	mpScope
	node *mpNode
}

func (r *rootScope) Finalize() error { return nil }

func (r *rootScope) Value(ptr any) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		n, err := toMPNode(ptr)
		if err != nil {
			return false, err
		}
		*r.node = *n
		return true, nil
	}
	if r.node.kind == mpNull {
		if av, ok := ptr.(*any); ok {
			*av = nil
		}
		return false, nil
	}
	return readMPPrimitive(r.node, ptr, r.opts, r.path)
}

func (r *rootScope) String(ptr *string) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		*r.node = mpNode{kind: mpString, str: *ptr}
		return true, nil
	}
	if r.node.kind == mpNull {
		return false, nil
	}
	if r.node.kind != mpString {
		return mismatchedOrSkip(r.opts, r.path, "expected string at document root")
	}
	*ptr = r.node.str
	return true, nil
}

func (r *rootScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if r.mode == bitserializer.ModeSave {
		*r.node = mpNode{kind: mpObject, fields: make(map[string]*mpNode, nFieldsHint)}
		return &objectScope{r.mpScope, r.node}, true
	}
	if r.node.kind != mpObject {
		return nil, false
	}
	return &objectScope{r.mpScope, r.node}, true
}

func (r *rootScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if r.mode == bitserializer.ModeSave {
		*r.node = mpNode{kind: mpArray, elems: make([]*mpNode, 0, size)}
		return &arrayScope{r.mpScope, r.node, 0}, true
	}
	if r.node.kind != mpArray {
		return nil, false
	}
	return &arrayScope{r.mpScope, r.node, 0}, true
}

// objectScope implements bitserializer.ObjectScope over an mpObject node.
type objectScope struct {
	mpScope
	node *mpNode
}

func (s *objectScope) field(key string) (*mpNode, bool) {
	n, ok := s.node.fields[key]
	return n, ok
}

func (s *objectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		n, err := toMPNode(ptr)
		if err != nil {
			return false, err
		}
		s.node.put(key, n)
		return true, nil
	}
	child, ok := s.field(key)
	if !ok || child.kind == mpNull {
		if av, ok2 := ptr.(*any); ok2 {
			*av = nil
		}
		return false, nil
	}
	return readMPPrimitive(child, ptr, s.opts, s.childPath(key))
}

func (s *objectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.put(key, &mpNode{kind: mpString, str: *ptr})
		return true, nil
	}
	child, ok := s.field(key)
	if !ok || child.kind == mpNull {
		return false, nil
	}
	if child.kind != mpString {
		return mismatchedOrSkip(s.opts, s.childPath(key), "expected string")
	}
	*ptr = child.str
	return true, nil
}

func (s *objectScope) OpenObjectScope(key string, nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &mpNode{kind: mpObject, fields: make(map[string]*mpNode, nFieldsHint)}
		s.node.put(key, child)
		return &objectScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child}, true
	}
	child, ok := s.field(key)
	if !ok || child.kind != mpObject {
		return nil, false
	}
	return &objectScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child}, true
}

func (s *objectScope) OpenArrayScope(key string, size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &mpNode{kind: mpArray, elems: make([]*mpNode, 0, size)}
		s.node.put(key, child)
		return &arrayScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
	}
	child, ok := s.field(key)
	if !ok || child.kind != mpArray {
		return nil, false
	}
	return &arrayScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
}

// OpenBinaryScope exposes key's payload byte-granularly, the capability
// only a binary backend can offer (see scope.go's BinaryOpener).
func (s *objectScope) OpenBinaryScope(key string, size int) (bitserializer.BinaryScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &mpNode{kind: mpBytes, bytes: make([]byte, 0, size)}
		s.node.put(key, child)
		return &binaryScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
	}
	child, ok := s.field(key)
	if !ok || child.kind != mpBytes {
		return nil, false
	}
	return &binaryScope{mpScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
}

func (s *objectScope) VisitKeys(fn func(key string) error) error {
	for _, k := range s.node.keys {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectScope) EstimatedSize() int { return len(s.node.keys) }

// arrayScope implements bitserializer.ArrayScope over an mpArray node.
type arrayScope struct {
	mpScope
	node *mpNode
	pos  int
}

func (s *arrayScope) Value(ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		n, err := toMPNode(ptr)
		if err != nil {
			return false, err
		}
		s.node.elems = append(s.node.elems, n)
		return true, nil
	}
	if s.pos >= len(s.node.elems) {
		return false, nil
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.kind == mpNull {
		return false, nil
	}
	return readMPPrimitive(child, ptr, s.opts, path)
}

func (s *arrayScope) String(ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.elems = append(s.node.elems, &mpNode{kind: mpString, str: *ptr})
		return true, nil
	}
	if s.pos >= len(s.node.elems) {
		return false, nil
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.kind == mpNull {
		return false, nil
	}
	if child.kind != mpString {
		return mismatchedOrSkip(s.opts, path, "expected string")
	}
	*ptr = child.str
	return true, nil
}

func (s *arrayScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &mpNode{kind: mpObject, fields: make(map[string]*mpNode, nFieldsHint)}
		s.node.elems = append(s.node.elems, child)
		return &objectScope{mpScope{s.ctx, s.opts, s.mode, s.indexPath(len(s.node.elems) - 1)}, child}, true
	}
	if s.pos >= len(s.node.elems) {
		return nil, false
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	if child.kind != mpObject {
		return nil, false
	}
	s.pos++
	return &objectScope{mpScope{s.ctx, s.opts, s.mode, path}, child}, true
}

func (s *arrayScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &mpNode{kind: mpArray, elems: make([]*mpNode, 0, size)}
		s.node.elems = append(s.node.elems, child)
		return &arrayScope{mpScope{s.ctx, s.opts, s.mode, s.indexPath(len(s.node.elems) - 1)}, child, 0}, true
	}
	if s.pos >= len(s.node.elems) {
		return nil, false
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	if child.kind != mpArray {
		return nil, false
	}
	s.pos++
	return &arrayScope{mpScope{s.ctx, s.opts, s.mode, path}, child, 0}, true
}

func (s *arrayScope) IsEnd() bool        { return s.pos >= len(s.node.elems) }
func (s *arrayScope) Size() int          { return len(s.node.elems) }
func (s *arrayScope) EstimatedSize() int { return len(s.node.elems) }

// binaryScope implements bitserializer.BinaryScope over an mpBytes node.
type binaryScope struct {
	mpScope
	node *mpNode
	off  int
}

func (b *binaryScope) Read(buf []byte) (int, error) {
	n := copy(buf, b.node.bytes[b.off:])
	b.off += n
	return n, nil
}

func (b *binaryScope) Write(data []byte) error {
	b.node.bytes = append(b.node.bytes, data...)
	return nil
}

func (b *binaryScope) Size() int { return len(b.node.bytes) }

func mismatchedOrSkip(opts *bitserializer.Options, path, message string) (bool, error) {
	if opts.MismatchedTypesPolicy == bitserializer.MismatchedTypesSkip {
		return false, nil
	}
	return false, bitserializer.NewMismatchedTypesError(path, message)
}

// toMPNode converts ptr's pointee into a freshly allocated mpNode. *any is
// accepted only as dispatch's nil-value sentinel or a BinTimestamp
// (chrono.go routes time.Time/time.Duration through *any when the backend
// is binary); any other *any means a caller reached a value type this
// backend does not know how to render.
func toMPNode(ptr any) (*mpNode, error) {
	switch v := ptr.(type) {
	case *bool:
		return &mpNode{kind: mpBool, boolVal: *v}, nil
	case *int:
		return &mpNode{kind: mpInt, i64: int64(*v)}, nil
	case *int8:
		return &mpNode{kind: mpInt, i64: int64(*v)}, nil
	case *int16:
		return &mpNode{kind: mpInt, i64: int64(*v)}, nil
	case *int32:
		return &mpNode{kind: mpInt, i64: int64(*v)}, nil
	case *int64:
		return &mpNode{kind: mpInt, i64: *v}, nil
	case *uint:
		return &mpNode{kind: mpUint, u64: uint64(*v)}, nil
	case *uint8:
		return &mpNode{kind: mpUint, u64: uint64(*v)}, nil
	case *uint16:
		return &mpNode{kind: mpUint, u64: uint64(*v)}, nil
	case *uint32:
		return &mpNode{kind: mpUint, u64: uint64(*v)}, nil
	case *uint64:
		return &mpNode{kind: mpUint, u64: *v}, nil
	case *float32:
		return &mpNode{kind: mpFloat32, f32: *v}, nil
	case *float64:
		return &mpNode{kind: mpFloat64, f64: *v}, nil
	case *any:
		if *v == nil {
			return &mpNode{kind: mpNull}, nil
		}
		if ts, ok := (*v).(bitserializer.BinTimestamp); ok {
			return &mpNode{kind: mpTime, tm: bitserializer.BinTimestampToTime(ts)}, nil
		}
		return nil, bitserializer.NewMismatchedTypesError("", fmt.Sprintf("msgpack: unsupported value %T", *v))
	default:
		return nil, bitserializer.NewMismatchedTypesError("", fmt.Sprintf("msgpack: unsupported primitive target %T", ptr))
	}
}

// readMPPrimitive reads n into ptr, applying opts.OverflowNumberPolicy for
// numeric narrowing and opts.MismatchedTypesPolicy for a kind mismatch.
func readMPPrimitive(n *mpNode, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	if av, ok := ptr.(*any); ok {
		if n.kind != mpTime {
			return mismatchedOrSkip(opts, path, "expected a timestamp")
		}
		*av = bitserializer.TimeToBinTimestamp(n.tm)
		return true, nil
	}
	if b, ok := ptr.(*bool); ok {
		if n.kind != mpBool {
			return mismatchedOrSkip(opts, path, "expected bool")
		}
		*b = n.boolVal
		return true, nil
	}
	policy := opts.OverflowNumberPolicy
	switch n.kind {
	case mpInt:
		return true, assignFromInt64(n.i64, ptr, policy, path)
	case mpUint:
		return true, assignFromUint64(n.u64, ptr, policy, path)
	case mpFloat32:
		return true, assignFromFloat64(float64(n.f32), ptr, policy, path)
	case mpFloat64:
		return true, assignFromFloat64(n.f64, ptr, policy, path)
	default:
		return mismatchedOrSkip(opts, path, "expected a number")
	}
}

func assignFromInt64(i int64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	switch v := ptr.(type) {
	case *int:
		r, err := bitserializer.ConvertNumber[int64, int](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int8:
		r, err := bitserializer.ConvertNumber[int64, int8](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int16:
		r, err := bitserializer.ConvertNumber[int64, int16](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int32:
		r, err := bitserializer.ConvertNumber[int64, int32](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int64:
		*v = i
	case *uint:
		if i < 0 {
			return bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint8:
		if i < 0 {
			return bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint8](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint16:
		if i < 0 {
			return bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint16](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint32:
		if i < 0 {
			return bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint32](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint64:
		if i < 0 {
			return bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		*v = uint64(i)
	case *float32:
		*v = float32(i)
	case *float64:
		*v = float64(i)
	default:
		return bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return nil
}

func assignFromUint64(u uint64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	switch v := ptr.(type) {
	case *uint64:
		*v = u
	case *uint:
		r, err := bitserializer.ConvertNumber[uint64, uint](u, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint8:
		r, err := bitserializer.ConvertNumber[uint64, uint8](u, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint16:
		r, err := bitserializer.ConvertNumber[uint64, uint16](u, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint32:
		r, err := bitserializer.ConvertNumber[uint64, uint32](u, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int, *int8, *int16, *int32, *int64:
		return assignFromInt64FromUnsigned(u, v, policy, path)
	case *float32:
		*v = float32(u)
	case *float64:
		*v = float64(u)
	default:
		return bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return nil
}

func assignFromInt64FromUnsigned(u uint64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	if u > 1<<63-1 {
		return bitserializer.NewOverflowError(path, "value does not fit a signed target")
	}
	return assignFromInt64(int64(u), ptr, policy, path)
}

func assignFromFloat64(f float64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	switch v := ptr.(type) {
	case *int:
		r, err := bitserializer.ConvertNumber[float64, int](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int8:
		r, err := bitserializer.ConvertNumber[float64, int8](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int16:
		r, err := bitserializer.ConvertNumber[float64, int16](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int32:
		r, err := bitserializer.ConvertNumber[float64, int32](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *int64:
		r, err := bitserializer.ConvertNumber[float64, int64](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint:
		r, err := bitserializer.ConvertNumber[float64, uint](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint8:
		r, err := bitserializer.ConvertNumber[float64, uint8](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint16:
		r, err := bitserializer.ConvertNumber[float64, uint16](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint32:
		r, err := bitserializer.ConvertNumber[float64, uint32](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint64:
		r, err := bitserializer.ConvertNumber[float64, uint64](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *float32:
		*v = float32(f)
	case *float64:
		*v = f
	default:
		return bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return nil
}

func withPath(err error, path string) error {
	if se, ok := err.(*bitserializer.SerializationError); ok {
		se.Path = path
		return se
	}
	return err
}

// The constants below are MessagePack's wire-format type-prefix bytes, per
// the format spec itself (not a Go library API): they let decodeValue
// classify the next value before committing to a typed Decode call.
const (
	mpcNil      = 0xc0
	mpcFalse    = 0xc2
	mpcTrue     = 0xc3
	mpcBin8     = 0xc4
	mpcBin16    = 0xc5
	mpcBin32    = 0xc6
	mpcExt8     = 0xc7
	mpcExt16    = 0xc8
	mpcExt32    = 0xc9
	mpcFloat32  = 0xca
	mpcFloat64  = 0xcb
	mpcUint8    = 0xcc
	mpcUint16   = 0xcd
	mpcUint32   = 0xce
	mpcUint64   = 0xcf
	mpcInt8     = 0xd0
	mpcInt16    = 0xd1
	mpcInt32    = 0xd2
	mpcInt64    = 0xd3
	mpcFixExt1  = 0xd4
	mpcFixExt2  = 0xd5
	mpcFixExt4  = 0xd6
	mpcFixExt8  = 0xd7
	mpcFixExt16 = 0xd8
	mpcStr8     = 0xd9
	mpcStr16    = 0xda
	mpcStr32    = 0xdb
	mpcArray16  = 0xdc
	mpcArray32  = 0xdd
	mpcMap16    = 0xde
	mpcMap32    = 0xdf
)

func isUintCode(c byte) bool {
	return c == mpcUint8 || c == mpcUint16 || c == mpcUint32 || c == mpcUint64
}

func isStrCode(c byte) bool {
	return (c >= 0xa0 && c <= 0xbf) || c == mpcStr8 || c == mpcStr16 || c == mpcStr32
}

func isBinCode(c byte) bool { return c == mpcBin8 || c == mpcBin16 || c == mpcBin32 }

func isMapCode(c byte) bool { return (c >= 0x80 && c <= 0x8f) || c == mpcMap16 || c == mpcMap32 }

func isArrayCode(c byte) bool {
	return (c >= 0x90 && c <= 0x9f) || c == mpcArray16 || c == mpcArray32
}

func isExtCode(c byte) bool {
	switch c {
	case mpcFixExt1, mpcFixExt2, mpcFixExt4, mpcFixExt8, mpcFixExt16, mpcExt8, mpcExt16, mpcExt32:
		return true
	}
	return false
}

// decodeDocument parses data into an mpNode tree in one pass, the same
// eager-decode shape json.go uses so malformed input surfaces once here as
// a ParsingError instead of resurfacing piecemeal through Scope Protocol
// calls.
func decodeDocument(data []byte) (*mpNode, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := decodeValue(dec)
	if err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	return n, nil
}

func decodeValue(dec *msgpack.Decoder) (*mpNode, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case code == mpcNil:
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return &mpNode{kind: mpNull}, nil
	case code == mpcTrue || code == mpcFalse:
		b, err := dec.DecodeBool()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpBool, boolVal: b}, nil
	case isMapCode(code):
		return decodeMapNode(dec)
	case isArrayCode(code):
		return decodeArrayNode(dec)
	case isStrCode(code):
		s, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpString, str: s}, nil
	case isBinCode(code):
		b, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpBytes, bytes: b}, nil
	case isExtCode(code):
		t, err := dec.DecodeTime()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpTime, tm: t}, nil
	case code == mpcFloat32:
		f, err := dec.DecodeFloat32()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpFloat32, f32: f}, nil
	case code == mpcFloat64:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpFloat64, f64: f}, nil
	case code <= 0x7f || isUintCode(code):
		u, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpUint, u64: u}, nil
	default:
		i, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		return &mpNode{kind: mpInt, i64: i}, nil
	}
}

func decodeMapNode(dec *msgpack.Decoder) (*mpNode, error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	node := &mpNode{kind: mpObject, keys: make([]string, 0, n), fields: make(map[string]*mpNode, n)}
	for i := 0; i < n; i++ {
		k, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		node.put(k, v)
	}
	return node, nil
}

func decodeArrayNode(dec *msgpack.Decoder) (*mpNode, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	node := &mpNode{kind: mpArray, elems: make([]*mpNode, 0, n)}
	for i := 0; i < n; i++ {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		node.elems = append(node.elems, v)
	}
	return node, nil
}

func encodeNode(enc *msgpack.Encoder, n *mpNode) error {
	switch n.kind {
	case mpNull:
		return enc.EncodeNil()
	case mpBool:
		return enc.EncodeBool(n.boolVal)
	case mpInt:
		return enc.EncodeInt64(n.i64)
	case mpUint:
		return enc.EncodeUint64(n.u64)
	case mpFloat32:
		return enc.EncodeFloat32(n.f32)
	case mpFloat64:
		return enc.EncodeFloat64(n.f64)
	case mpString:
		return enc.EncodeString(n.str)
	case mpBytes:
		return enc.EncodeBytes(n.bytes)
	case mpTime:
		return enc.EncodeTime(n.tm)
	case mpObject:
		if err := enc.EncodeMapLen(len(n.keys)); err != nil {
			return err
		}
		for _, k := range n.keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeNode(enc, n.fields[k]); err != nil {
				return err
			}
		}
		return nil
	case mpArray:
		if err := enc.EncodeArrayLen(len(n.elems)); err != nil {
			return err
		}
		for _, child := range n.elems {
			if err := encodeNode(enc, child); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
