// Package json is the JSON Backend: a tree of jsonNode values built and
// walked through the Scope Protocol, rendered and parsed with the standard
// library's token-level encoding/json API rather than its map[string]any
// convenience layer, since that layer does not preserve object key order
// across a Load/Save round trip.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

// traits is shared by every scope this package produces. JSON has no binary
// payloads, no attribute side channel and only string keys.
var traits = bitserializer.Traits{
	PathSeparator: '/',
	IsBinary:      false,
	ArchiveType:   "json",
}

// Backend implements bitserializer.Backend for JSON.
type Backend struct{}

// New returns a JSON Backend.
func New() bitserializer.Backend { return Backend{} }

// ArchiveType returns "json".
func (Backend) ArchiveType() string { return "json" }

// NewSaveScope returns a fresh root scope with an empty, untyped node; its
// kind is set on the first Value/String/OpenObjectScope/OpenArrayScope call.
func (Backend) NewSaveScope(ctx *bitserializer.Context, opts *bitserializer.Options) bitserializer.RootScope {
	return &rootScope{
		jsonScope: jsonScope{ctx: ctx, opts: opts, mode: bitserializer.ModeSave},
		node:      &jsonNode{kind: jsonNull},
	}
}

// NewLoadScope parses data and returns a root scope positioned at the
// resulting tree.
func (Backend) NewLoadScope(data []byte, ctx *bitserializer.Context, opts *bitserializer.Options) (bitserializer.RootScope, error) {
	node, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &rootScope{
		jsonScope: jsonScope{ctx: ctx, opts: opts, mode: bitserializer.ModeLoad},
		node:      node,
	}, nil
}

// Render encodes scope's accumulated tree, applying opts.Format's
// indentation if requested.
func (Backend) Render(scope bitserializer.RootScope) ([]byte, error) {
	root, ok := scope.(*rootScope)
	if !ok {
		return nil, bitserializer.NewParsingError("json: Render called with a scope this backend did not create")
	}
	return encodeDocument(root.node, root.opts.Format), nil
}

// jsonValueKind discriminates the union stored in a jsonNode. Exactly one of
// the typed fields below is meaningful for a given kind.
type jsonValueKind int

const (
	jsonNull jsonValueKind = iota
	jsonBool
	jsonNumber
	jsonString
	jsonObject
	jsonArray
)

// jsonNode is one position in the parsed/in-progress document tree. Objects
// keep an explicit key slice alongside the lookup map so archive order
// survives a Load that only ever reads through VisitKeys in order, and so a
// freshly built Save tree renders members in the order Serialize wrote them.
type jsonNode struct {
	kind    jsonValueKind
	boolVal bool
	numVal  json.Number
	strVal  string
	keys    []string
	fields  map[string]*jsonNode
	elems   []*jsonNode
}

// jsonScope carries the state every scope in this package shares.
type jsonScope struct {
	ctx  *bitserializer.Context
	opts *bitserializer.Options
	mode bitserializer.Mode
	path string
}

func (s jsonScope) Path() string                    { return s.path }
func (s jsonScope) Context() *bitserializer.Context { return s.ctx }
func (s jsonScope) Options() *bitserializer.Options { return s.opts }
func (s jsonScope) Mode() bitserializer.Mode        { return s.mode }
func (s jsonScope) Traits() bitserializer.Traits    { return traits }
func (s jsonScope) Close() error                    { return nil }

func (s jsonScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

func (s jsonScope) indexPath(i int) string {
	return s.childPath(strconv.Itoa(i))
}

// rootScope is the RootScope a Backend hands to the facade.
type rootScope struct {
	jsonScope
	node *jsonNode
}

func (r *rootScope) Finalize() error { return nil }

func (r *rootScope) Value(ptr any) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		return true, setJSONPrimitive(r.node, ptr)
	}
	if r.node.kind == jsonNull {
		return false, nil
	}
	return readJSONPrimitive(r.node, ptr, r.opts, r.path)
}

func (r *rootScope) String(ptr *string) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		r.node.kind = jsonString
		r.node.strVal = *ptr
		return true, nil
	}
	if r.node.kind == jsonNull {
		return false, nil
	}
	if r.node.kind != jsonString {
		return mismatchedOrSkip(r.opts, r.path, "expected string at document root")
	}
	*ptr = r.node.strVal
	return true, nil
}

func (r *rootScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if r.mode == bitserializer.ModeSave {
		r.node.kind = jsonObject
		r.node.fields = make(map[string]*jsonNode, nFieldsHint)
		return &objectScope{jsonScope: r.jsonScope, node: r.node}, true
	}
	if r.node.kind != jsonObject {
		return nil, false
	}
	return &objectScope{jsonScope: r.jsonScope, node: r.node}, true
}

func (r *rootScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if r.mode == bitserializer.ModeSave {
		r.node.kind = jsonArray
		r.node.elems = make([]*jsonNode, 0, size)
		return &arrayScope{jsonScope: r.jsonScope, node: r.node}, true
	}
	if r.node.kind != jsonArray {
		return nil, false
	}
	return &arrayScope{jsonScope: r.jsonScope, node: r.node}, true
}

// objectScope implements bitserializer.ObjectScope over a jsonObject node.
type objectScope struct {
	jsonScope
	node *jsonNode
}

func (s *objectScope) field(key string) (*jsonNode, bool) {
	n, ok := s.node.fields[key]
	return n, ok
}

func (s *objectScope) put(key string, child *jsonNode) {
	if _, exists := s.node.fields[key]; !exists {
		s.node.keys = append(s.node.keys, key)
	}
	s.node.fields[key] = child
}

func (s *objectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{}
		if err := setJSONPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.put(key, child)
		return true, nil
	}
	child, ok := s.field(key)
	if !ok || child.kind == jsonNull {
		return false, nil
	}
	return readJSONPrimitive(child, ptr, s.opts, s.childPath(key))
}

func (s *objectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.put(key, &jsonNode{kind: jsonString, strVal: *ptr})
		return true, nil
	}
	child, ok := s.field(key)
	if !ok || child.kind == jsonNull {
		return false, nil
	}
	if child.kind != jsonString {
		return mismatchedOrSkip(s.opts, s.childPath(key), "expected string")
	}
	*ptr = child.strVal
	return true, nil
}

func (s *objectScope) OpenObjectScope(key string, nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{kind: jsonObject, fields: make(map[string]*jsonNode, nFieldsHint)}
		s.put(key, child)
		return &objectScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.childPath(key)}, node: child}, true
	}
	child, ok := s.field(key)
	if !ok || child.kind != jsonObject {
		return nil, false
	}
	return &objectScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.childPath(key)}, node: child}, true
}

func (s *objectScope) OpenArrayScope(key string, size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{kind: jsonArray, elems: make([]*jsonNode, 0, size)}
		s.put(key, child)
		return &arrayScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.childPath(key)}, node: child}, true
	}
	child, ok := s.field(key)
	if !ok || child.kind != jsonArray {
		return nil, false
	}
	return &arrayScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.childPath(key)}, node: child}, true
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

// arrayScope implements bitserializer.ArrayScope over a jsonArray node.
type arrayScope struct {
	jsonScope
	node *jsonNode
	pos  int
}

func (s *arrayScope) Value(ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{}
		if err := setJSONPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.node.elems = append(s.node.elems, child)
		return true, nil
	}
	if s.pos >= len(s.node.elems) {
		return false, nil
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.kind == jsonNull {
		return false, nil
	}
	return readJSONPrimitive(child, ptr, s.opts, path)
}

func (s *arrayScope) String(ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.elems = append(s.node.elems, &jsonNode{kind: jsonString, strVal: *ptr})
		return true, nil
	}
	if s.pos >= len(s.node.elems) {
		return false, nil
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.kind == jsonNull {
		return false, nil
	}
	if child.kind != jsonString {
		return mismatchedOrSkip(s.opts, path, "expected string")
	}
	*ptr = child.strVal
	return true, nil
}

func (s *arrayScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{kind: jsonObject, fields: make(map[string]*jsonNode, nFieldsHint)}
		s.node.elems = append(s.node.elems, child)
		return &objectScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.indexPath(len(s.node.elems) - 1)}, node: child}, true
	}
	if s.pos >= len(s.node.elems) {
		return nil, false
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	if child.kind != jsonObject {
		return nil, false
	}
	s.pos++
	return &objectScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: path}, node: child}, true
}

func (s *arrayScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &jsonNode{kind: jsonArray, elems: make([]*jsonNode, 0, size)}
		s.node.elems = append(s.node.elems, child)
		return &arrayScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: s.indexPath(len(s.node.elems) - 1)}, node: child}, true
	}
	if s.pos >= len(s.node.elems) {
		return nil, false
	}
	child := s.node.elems[s.pos]
	path := s.indexPath(s.pos)
	if child.kind != jsonArray {
		return nil, false
	}
	s.pos++
	return &arrayScope{jsonScope: jsonScope{ctx: s.ctx, opts: s.opts, mode: s.mode, path: path}, node: child}, true
}

func (s *arrayScope) IsEnd() bool      { return s.pos >= len(s.node.elems) }
func (s *arrayScope) Size() int        { return len(s.node.elems) }
func (s *arrayScope) EstimatedSize() int { return len(s.node.elems) }

// mismatchedOrSkip honors Options.MismatchedTypesPolicy the way scope.go's
// ObjectScope.Value doc comment describes: Skip leaves the caller's field
// untouched and reports no value present, rather than raising an error.
func mismatchedOrSkip(opts *bitserializer.Options, path, message string) (bool, error) {
	if opts.MismatchedTypesPolicy == bitserializer.MismatchedTypesSkip {
		return false, nil
	}
	return false, bitserializer.NewMismatchedTypesError(path, message)
}

// setJSONPrimitive writes ptr's value into n, which must be freshly
// allocated. *any is accepted only as the nil-value sentinel dispatch.go
// uses for an absent Optional/pointer — every other *any would mean a
// backend-agnostic caller reached a value type this backend does not know
// how to render.
func setJSONPrimitive(n *jsonNode, ptr any) error {
	switch v := ptr.(type) {
	case *bool:
		n.kind, n.boolVal = jsonBool, *v
	case *int:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatInt(int64(*v), 10))
	case *int8:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatInt(int64(*v), 10))
	case *int16:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatInt(int64(*v), 10))
	case *int32:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatInt(int64(*v), 10))
	case *int64:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatInt(*v, 10))
	case *uint:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatUint(uint64(*v), 10))
	case *uint8:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatUint(uint64(*v), 10))
	case *uint16:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatUint(uint64(*v), 10))
	case *uint32:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatUint(uint64(*v), 10))
	case *uint64:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatUint(*v, 10))
	case *float32:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatFloat(float64(*v), 'g', -1, 32))
	case *float64:
		n.kind, n.numVal = jsonNumber, json.Number(strconv.FormatFloat(*v, 'g', -1, 64))
	case *any:
		if *v != nil {
			return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("json: unsupported value %T", *v))
		}
		n.kind = jsonNull
	default:
		return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("json: unsupported primitive target %T", ptr))
	}
	return nil
}

// readJSONPrimitive reads n into ptr, applying opts.OverflowNumberPolicy for
// numeric narrowing and opts.MismatchedTypesPolicy for a kind mismatch.
func readJSONPrimitive(n *jsonNode, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	if b, isBool := ptr.(*bool); isBool {
		if n.kind != jsonBool {
			return mismatchedOrSkip(opts, path, "expected bool")
		}
		*b = n.boolVal
		return true, nil
	}
	if n.kind != jsonNumber {
		return mismatchedOrSkip(opts, path, "expected number")
	}
	if err := assignNumber(n.numVal, ptr, opts, path); err != nil {
		return false, err
	}
	return true, nil
}

// assignNumber converts num to ptr's pointee type. It prefers an exact
// int64 parse — JSON has no native integer/float distinction, and decoding
// every number through float64 first would silently lose precision above
// 2^53 for otherwise-exact integer literals.
func assignNumber(num json.Number, ptr any, opts *bitserializer.Options, path string) error {
	if i, err := num.Int64(); err == nil {
		return assignFromInt64(i, ptr, opts.OverflowNumberPolicy, path)
	}
	f, err := num.Float64()
	if err != nil {
		return bitserializer.NewParsingError(err.Error())
	}
	return assignFromFloat64(f, ptr, opts.OverflowNumberPolicy, path)
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
		r, err := bitserializer.ConvertNumber[int64, uint](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint8:
		r, err := bitserializer.ConvertNumber[int64, uint8](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint16:
		r, err := bitserializer.ConvertNumber[int64, uint16](i, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
	case *uint32:
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

// withPath attaches path to a *SerializationError produced by ConvertNumber,
// which has no path context of its own.
func withPath(err error, path string) error {
	if se, ok := err.(*bitserializer.SerializationError); ok {
		se.Path = path
		return se
	}
	return err
}

// decodeDocument parses data into a jsonNode tree via token-level decoding,
// the only way encoding/json preserves object key order.
func decodeDocument(data []byte) (*jsonNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, parsingError(err, data)
	}
	node, err := decodeValue(dec, tok)
	if err != nil {
		return nil, parsingError(err, data)
	}
	return node, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (*jsonNode, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &jsonNode{kind: jsonObject, fields: map[string]*jsonNode{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				child, err := decodeValue(dec, valTok)
				if err != nil {
					return nil, err
				}
				if _, exists := n.fields[key]; !exists {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = child
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return n, nil
		case '[':
			n := &jsonNode{kind: jsonArray}
			for dec.More() {
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				child, err := decodeValue(dec, valTok)
				if err != nil {
					return nil, err
				}
				n.elems = append(n.elems, child)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("json: unexpected delimiter %v", t)
	case bool:
		return &jsonNode{kind: jsonBool, boolVal: t}, nil
	case json.Number:
		return &jsonNode{kind: jsonNumber, numVal: t}, nil
	case string:
		return &jsonNode{kind: jsonString, strVal: t}, nil
	case nil:
		return &jsonNode{kind: jsonNull}, nil
	default:
		return nil, fmt.Errorf("json: unexpected token %T", tok)
	}
}

func parsingError(err error, data []byte) error {
	if se, ok := err.(*json.SyntaxError); ok {
		line, col := lineCol(data, int(se.Offset))
		return bitserializer.NewParsingErrorAt(se.Error(), int(se.Offset), line, col)
	}
	return bitserializer.NewParsingError(err.Error())
}

func lineCol(data []byte, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(data); i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// encodeDocument renders root, applying fmtOpts' indentation when enabled.
func encodeDocument(root *jsonNode, fmtOpts bitserializer.FormatOptions) []byte {
	var buf bytes.Buffer
	encodeNode(&buf, root, fmtOpts, 0)
	return buf.Bytes()
}

func encodeNode(buf *bytes.Buffer, n *jsonNode, fmtOpts bitserializer.FormatOptions, depth int) {
	switch n.kind {
	case jsonNull:
		buf.WriteString("null")
	case jsonBool:
		buf.WriteString(strconv.FormatBool(n.boolVal))
	case jsonNumber:
		if n.numVal == "" {
			buf.WriteString("0")
			return
		}
		buf.WriteString(string(n.numVal))
	case jsonString:
		encodeJSONString(buf, n.strVal)
	case jsonObject:
		buf.WriteByte('{')
		writeBreak(buf, fmtOpts, depth+1, len(n.keys) > 0)
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
				writeBreak(buf, fmtOpts, depth+1, true)
			}
			encodeJSONString(buf, k)
			buf.WriteByte(':')
			if fmtOpts.EnableFormat {
				buf.WriteByte(' ')
			}
			encodeNode(buf, n.fields[k], fmtOpts, depth+1)
		}
		writeBreak(buf, fmtOpts, depth, len(n.keys) > 0)
		buf.WriteByte('}')
	case jsonArray:
		buf.WriteByte('[')
		writeBreak(buf, fmtOpts, depth+1, len(n.elems) > 0)
		for i, child := range n.elems {
			if i > 0 {
				buf.WriteByte(',')
				writeBreak(buf, fmtOpts, depth+1, true)
			}
			encodeNode(buf, child, fmtOpts, depth+1)
		}
		writeBreak(buf, fmtOpts, depth, len(n.elems) > 0)
		buf.WriteByte(']')
	}
}

func writeBreak(buf *bytes.Buffer, fmtOpts bitserializer.FormatOptions, depth int, cond bool) {
	if !fmtOpts.EnableFormat || !cond {
		return
	}
	buf.WriteByte('\n')
	pad := fmtOpts.PaddingChar
	if pad == 0 {
		pad = ' '
	}
	n := fmtOpts.PaddingCharNum
	if n == 0 {
		n = 2
	}
	for i := 0; i < depth*n; i++ {
		buf.WriteRune(pad)
	}
}

func encodeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
