// Package xml is the XML Backend. Values serialize under a fixed root
// element (<root>...</root>); object fields become child elements named
// after their key, array elements become repeated siblings sharing the
// array's key as their tag (XML's native way of representing a sequence),
// and AttrKV routes through the element's attribute list via
// bitserializer.AttributeOpener.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

const rootTag = "root"

var traits = bitserializer.Traits{
	PathSeparator: '/',
	IsBinary:      false,
	ArchiveType:   "xml",
}

// Backend implements bitserializer.Backend for XML.
type Backend struct{}

// New returns an XML Backend.
func New() bitserializer.Backend { return Backend{} }

func (Backend) ArchiveType() string { return "xml" }

func (Backend) NewSaveScope(ctx *bitserializer.Context, opts *bitserializer.Options) bitserializer.RootScope {
	node := &xmlNode{name: rootTag}
	return &rootScope{xmlScope{ctx: ctx, opts: opts, mode: bitserializer.ModeSave}, node}
}

func (Backend) NewLoadScope(data []byte, ctx *bitserializer.Context, opts *bitserializer.Options) (bitserializer.RootScope, error) {
	node, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &rootScope{xmlScope{ctx: ctx, opts: opts, mode: bitserializer.ModeLoad}, node}, nil
}

func (Backend) Render(scope bitserializer.RootScope) ([]byte, error) {
	root, ok := scope.(*rootScope)
	if !ok {
		return nil, bitserializer.NewParsingError("xml: Render called with a scope this backend did not create")
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encodeNode(&buf, root.node, root.opts.Format, 0)
	return buf.Bytes(), nil
}

// xmlAttr is one name/value attribute, kept in declaration order.
type xmlAttr struct {
	name  string
	value string
}

// xmlNode is one element: its attributes, its own text (only meaningful for
// a leaf), and its ordered child elements.
type xmlNode struct {
	name     string
	attrs    []xmlAttr
	text     string
	hasText  bool
	children []*xmlNode
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func (n *xmlNode) setAttr(name, value string) {
	for i, a := range n.attrs {
		if a.name == name {
			n.attrs[i].value = value
			return
		}
	}
	n.attrs = append(n.attrs, xmlAttr{name, value})
}

type xmlScope struct {
	ctx  *bitserializer.Context
	opts *bitserializer.Options
	mode bitserializer.Mode
	path string
}

func (s xmlScope) Path() string                    { return s.path }
func (s xmlScope) Context() *bitserializer.Context { return s.ctx }
func (s xmlScope) Options() *bitserializer.Options { return s.opts }
func (s xmlScope) Mode() bitserializer.Mode        { return s.mode }
func (s xmlScope) Traits() bitserializer.Traits    { return traits }
func (s xmlScope) Close() error                    { return nil }

func (s xmlScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

// objectScope reads/writes keyed members as child elements of node, one per
// call, via a shared cursor: Load and Save both walk node.children in
// exactly the order a Serialize method visits its fields, so a single
// position counter (rather than a per-key lookup) is enough to track where
// the next read resumes — the same assumption arrayScope relies on to
// consume a repeated run of same-named siblings.
type objectScope struct {
	xmlScope
	node   *xmlNode
	cursor *int
}

// rootScope is the RootScope the facade receives. It is deliberately a
// distinct type from objectScope, not an embedding of it: ObjectOpener's
// OpenObjectScope(n int) and ObjectScope's OpenObjectScope(key string, n
// int) share a name but not a signature, so embedding would promote the
// wrong one and silently fail every type assertion the positional dispatch
// path relies on.
type rootScope struct {
	xmlScope
	node *xmlNode
}

func (r *rootScope) Finalize() error { return nil }

func (r *rootScope) Value(ptr any) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		return true, setXMLPrimitive(r.node, ptr)
	}
	if !r.node.hasText {
		return false, nil
	}
	return readXMLPrimitive(r.node.text, ptr, r.opts, r.path)
}

func (r *rootScope) String(ptr *string) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		r.node.text, r.node.hasText = *ptr, true
		return true, nil
	}
	if !r.node.hasText {
		return false, nil
	}
	*ptr = r.node.text
	return true, nil
}

func (r *rootScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	return &objectScope{r.xmlScope, r.node, new(int)}, true
}

func (r *rootScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	// A bare top-level sequence has no natural XML root-element identity;
	// this backend requires a single object (or scalar) at the document
	// root, matching every other backend's "array as a struct field" shape.
	return nil, false
}

func (s *objectScope) nextChild() (*xmlNode, bool) {
	if *s.cursor >= len(s.node.children) {
		return nil, false
	}
	n := s.node.children[*s.cursor]
	return n, true
}

func (s *objectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		if a, ok := ptr.(*any); ok && *a == nil {
			return true, nil // an absent Optional/pointer writes no element at all
		}
		child := &xmlNode{name: key}
		if err := setXMLPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.node.children = append(s.node.children, child)
		return true, nil
	}
	child, ok := s.nextChild()
	if !ok || child.name != key {
		return false, nil
	}
	*s.cursor++
	if !child.hasText {
		return false, nil
	}
	return readXMLPrimitive(child.text, ptr, s.opts, s.childPath(key))
}

func (s *objectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.children = append(s.node.children, &xmlNode{name: key, text: *ptr, hasText: true})
		return true, nil
	}
	child, ok := s.nextChild()
	if !ok || child.name != key {
		return false, nil
	}
	*s.cursor++
	if !child.hasText {
		return false, nil
	}
	*ptr = child.text
	return true, nil
}

func (s *objectScope) OpenObjectScope(key string, nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &xmlNode{name: key}
		s.node.children = append(s.node.children, child)
		return &objectScope{xmlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, new(int)}, true
	}
	child, ok := s.nextChild()
	if !ok || child.name != key {
		return nil, false
	}
	*s.cursor++
	return &objectScope{xmlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, new(int)}, true
}

func (s *objectScope) OpenArrayScope(key string, size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		return &arrayScope{xmlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, s.node, key, s.cursor, 0}, true
	}
	if _, ok := s.nextChild(); !ok {
		return nil, false
	}
	return &arrayScope{xmlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, s.node, key, s.cursor, 0}, true
}

func (s *objectScope) OpenAttributeScope() (bitserializer.ObjectScope, bool) {
	return &attributeScope{xmlScope{s.ctx, s.opts, s.mode, s.path}, s.node}, true
}

func (s *objectScope) VisitKeys(fn func(key string) error) error {
	for *s.cursor < len(s.node.children) {
		key := s.node.children[*s.cursor].name
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectScope) EstimatedSize() int { return len(s.node.children) - *s.cursor }

// arrayScope consumes/produces a run of node.children sharing the tag name
// key, directly under the parent element — XML has no wrapper element for a
// sequence, so the "array" is just every sibling with that name.
type arrayScope struct {
	xmlScope
	node   *xmlNode
	key    string
	cursor *int
	count  int // Save only: elements appended so far, for Size()/path indexing
}

func (s *arrayScope) indexPath(i int) string { return s.childPath(strconv.Itoa(i)) }

func (s *arrayScope) peek() (*xmlNode, bool) {
	if *s.cursor >= len(s.node.children) {
		return nil, false
	}
	child := s.node.children[*s.cursor]
	if child.name != s.key {
		return nil, false
	}
	return child, true
}

func (s *arrayScope) Value(ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		child := &xmlNode{name: s.key}
		if err := setXMLPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.node.children = append(s.node.children, child)
		s.count++
		return true, nil
	}
	child, ok := s.peek()
	if !ok {
		return false, nil
	}
	path := s.indexPath(*s.cursor)
	*s.cursor++
	if !child.hasText {
		return false, nil
	}
	return readXMLPrimitive(child.text, ptr, s.opts, path)
}

func (s *arrayScope) String(ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.children = append(s.node.children, &xmlNode{name: s.key, text: *ptr, hasText: true})
		s.count++
		return true, nil
	}
	child, ok := s.peek()
	if !ok {
		return false, nil
	}
	*s.cursor++
	if !child.hasText {
		return false, nil
	}
	*ptr = child.text
	return true, nil
}

func (s *arrayScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &xmlNode{name: s.key}
		s.node.children = append(s.node.children, child)
		path := s.indexPath(s.count)
		s.count++
		return &objectScope{xmlScope{s.ctx, s.opts, s.mode, path}, child, new(int)}, true
	}
	child, ok := s.peek()
	if !ok {
		return nil, false
	}
	path := s.indexPath(*s.cursor)
	*s.cursor++
	return &objectScope{xmlScope{s.ctx, s.opts, s.mode, path}, child, new(int)}, true
}

func (s *arrayScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	// A sequence of sequences has no native XML shape distinct from a plain
	// sequence of elements; each element here just becomes its own <key>
	// wrapping a nested repeated run, which this backend does not attempt to
	// disambiguate from a plain object. Unsupported.
	return nil, false
}

func (s *arrayScope) IsEnd() bool {
	if s.mode == bitserializer.ModeSave {
		return true
	}
	_, ok := s.peek()
	return !ok
}

func (s *arrayScope) Size() int {
	if s.mode == bitserializer.ModeSave {
		return s.count
	}
	n := 0
	for i := *s.cursor; i < len(s.node.children) && s.node.children[i].name == s.key; i++ {
		n++
	}
	return n
}

func (s *arrayScope) EstimatedSize() int { return s.Size() }

// attributeScope routes Value/String through node's attribute list instead
// of its children, reached via AttrKV/AutoAttrKV.
type attributeScope struct {
	xmlScope
	node *xmlNode
}

func (s *attributeScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		str, err := formatXMLPrimitive(ptr)
		if err != nil {
			return false, err
		}
		s.node.setAttr(key, str)
		return true, nil
	}
	v, ok := s.node.attr(key)
	if !ok {
		return false, nil
	}
	return readXMLPrimitive(v, ptr, s.opts, s.childPath("@"+key))
}

func (s *attributeScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.setAttr(key, *ptr)
		return true, nil
	}
	v, ok := s.node.attr(key)
	if !ok {
		return false, nil
	}
	*ptr = v
	return true, nil
}

func (s *attributeScope) OpenObjectScope(key string, n int) (bitserializer.ObjectScope, bool) { return nil, false }
func (s *attributeScope) OpenArrayScope(key string, n int) (bitserializer.ArrayScope, bool)   { return nil, false }

func (s *attributeScope) VisitKeys(fn func(key string) error) error {
	for _, a := range s.node.attrs {
		if err := fn(a.name); err != nil {
			return err
		}
	}
	return nil
}

func (s *attributeScope) EstimatedSize() int { return len(s.node.attrs) }

// mismatchedOrSkip honors Options.MismatchedTypesPolicy.
func mismatchedOrSkip(opts *bitserializer.Options, path, message string) (bool, error) {
	if opts.MismatchedTypesPolicy == bitserializer.MismatchedTypesSkip {
		return false, nil
	}
	return false, bitserializer.NewMismatchedTypesError(path, message)
}

func setXMLPrimitive(n *xmlNode, ptr any) error {
	if a, ok := ptr.(*any); ok {
		if *a != nil {
			return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("xml: unsupported value %T", *a))
		}
		return nil // no text; objectScope.Value writes no element for it
	}
	str, err := formatXMLPrimitive(ptr)
	if err != nil {
		return err
	}
	n.text, n.hasText = str, true
	return nil
}

func formatXMLPrimitive(ptr any) (string, error) {
	switch v := ptr.(type) {
	case *bool:
		return strconv.FormatBool(*v), nil
	case *int:
		return strconv.FormatInt(int64(*v), 10), nil
	case *int8:
		return strconv.FormatInt(int64(*v), 10), nil
	case *int16:
		return strconv.FormatInt(int64(*v), 10), nil
	case *int32:
		return strconv.FormatInt(int64(*v), 10), nil
	case *int64:
		return strconv.FormatInt(*v, 10), nil
	case *uint:
		return strconv.FormatUint(uint64(*v), 10), nil
	case *uint8:
		return strconv.FormatUint(uint64(*v), 10), nil
	case *uint16:
		return strconv.FormatUint(uint64(*v), 10), nil
	case *uint32:
		return strconv.FormatUint(uint64(*v), 10), nil
	case *uint64:
		return strconv.FormatUint(*v, 10), nil
	case *float32:
		return strconv.FormatFloat(float64(*v), 'g', -1, 32), nil
	case *float64:
		return strconv.FormatFloat(*v, 'g', -1, 64), nil
	default:
		return "", bitserializer.NewMismatchedTypesError("", fmt.Sprintf("xml: unsupported primitive target %T", ptr))
	}
}

func readXMLPrimitive(text string, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	switch v := ptr.(type) {
	case *bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected bool")
		}
		*v = b
		return true, nil
	case *int, *int8, *int16, *int32, *int64, *uint, *uint8, *uint16, *uint32, *uint64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			if u, uerr := strconv.ParseUint(text, 10, 64); uerr == nil {
				return assignUintOverflow(u, ptr, opts, path)
			}
			return mismatchedOrSkip(opts, path, "expected integer")
		}
		return assignInt(i, ptr, opts, path)
	case *float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected float")
		}
		*v = float32(f)
		return true, nil
	case *float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected float")
		}
		*v = f
		return true, nil
	default:
		return false, bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
}

func assignInt(i int64, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	policy := opts.OverflowNumberPolicy
	switch v := ptr.(type) {
	case *int:
		r, err := bitserializer.ConvertNumber[int64, int](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *int8:
		r, err := bitserializer.ConvertNumber[int64, int8](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *int16:
		r, err := bitserializer.ConvertNumber[int64, int16](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *int32:
		r, err := bitserializer.ConvertNumber[int64, int32](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *int64:
		*v = i
	case *uint:
		if i < 0 {
			return false, bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *uint8:
		if i < 0 {
			return false, bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint8](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *uint16:
		if i < 0 {
			return false, bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint16](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *uint32:
		if i < 0 {
			return false, bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		r, err := bitserializer.ConvertNumber[int64, uint32](i, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *uint64:
		if i < 0 {
			return false, bitserializer.NewOverflowError(path, "negative value does not fit an unsigned target")
		}
		*v = uint64(i)
	}
	return true, nil
}

func assignUintOverflow(u uint64, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	policy := opts.OverflowNumberPolicy
	switch v := ptr.(type) {
	case *uint64:
		*v = u
		return true, nil
	case *uint:
		r, err := bitserializer.ConvertNumber[uint64, uint](u, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
		return true, nil
	default:
		return false, bitserializer.NewOverflowError(path, "value does not fit the target's signed range")
	}
}

func withPath(err error, path string) error {
	if se, ok := err.(*bitserializer.SerializationError); ok {
		se.Path = path
		return se
	}
	return err
}

// decodeDocument parses an XML document into an xmlNode tree, ignoring
// whatever the actual root tag name is (Render always writes "root").
func decodeDocument(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, bitserializer.NewParsingError(err.Error())
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	n := &xmlNode{name: start.Name.Local}
	for _, a := range start.Attr {
		n.attrs = append(n.attrs, xmlAttr{a.Name.Local, a.Value})
	}
	var text bytes.Buffer
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, bitserializer.NewParsingError(err.Error())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(n.children) == 0 {
				n.text, n.hasText = text.String(), true
			}
			return n, nil
		}
	}
}

func encodeNode(buf *bytes.Buffer, n *xmlNode, fmtOpts bitserializer.FormatOptions, depth int) {
	writeIndent(buf, fmtOpts, depth)
	buf.WriteByte('<')
	buf.WriteString(n.name)
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.name)
		buf.WriteString(`="`)
		xml.EscapeText(buf, []byte(a.value))
		buf.WriteByte('"')
	}
	if len(n.children) == 0 && !n.hasText {
		buf.WriteString("/>")
		writeNewline(buf, fmtOpts)
		return
	}
	buf.WriteByte('>')
	if len(n.children) > 0 {
		writeNewline(buf, fmtOpts)
		for _, child := range n.children {
			encodeNode(buf, child, fmtOpts, depth+1)
		}
		writeIndent(buf, fmtOpts, depth)
	} else {
		xml.EscapeText(buf, []byte(n.text))
	}
	buf.WriteString("</")
	buf.WriteString(n.name)
	buf.WriteByte('>')
	writeNewline(buf, fmtOpts)
}

func writeNewline(buf *bytes.Buffer, fmtOpts bitserializer.FormatOptions) {
	if fmtOpts.EnableFormat {
		buf.WriteByte('\n')
	}
}

func writeIndent(buf *bytes.Buffer, fmtOpts bitserializer.FormatOptions, depth int) {
	if !fmtOpts.EnableFormat {
		return
	}
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
