// Package yaml is the YAML Backend, built directly on gopkg.in/yaml.v3's
// Node tree rather than its map[string]any convenience layer: yaml.Node's
// MappingNode already stores key/value pairs as an ordered Content slice, so
// there is no need to hand-roll an order-preserving intermediate
// representation the way the JSON backend does for encoding/json.
package yaml

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

var traits = bitserializer.Traits{
	PathSeparator: '/',
	IsBinary:      false,
	ArchiveType:   "yaml",
}

// Backend implements bitserializer.Backend for YAML.
type Backend struct{}

// New returns a YAML Backend.
func New() bitserializer.Backend { return Backend{} }

func (Backend) ArchiveType() string { return "yaml" }

func (Backend) NewSaveScope(ctx *bitserializer.Context, opts *bitserializer.Options) bitserializer.RootScope {
	return &rootScope{yamlScope{ctx: ctx, opts: opts, mode: bitserializer.ModeSave}, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}}
}

func (Backend) NewLoadScope(data []byte, ctx *bitserializer.Context, opts *bitserializer.Options) (bitserializer.RootScope, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	node := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		node = doc.Content[0]
	}
	return &rootScope{yamlScope{ctx: ctx, opts: opts, mode: bitserializer.ModeLoad}, node}, nil
}

func (Backend) Render(scope bitserializer.RootScope) ([]byte, error) {
	root, ok := scope.(*rootScope)
	if !ok {
		return nil, bitserializer.NewParsingError("yaml: Render called with a scope this backend did not create")
	}
	out, err := yaml.Marshal(root.node)
	if err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	return out, nil
}

type yamlScope struct {
	ctx  *bitserializer.Context
	opts *bitserializer.Options
	mode bitserializer.Mode
	path string
}

func (s yamlScope) Path() string                    { return s.path }
func (s yamlScope) Context() *bitserializer.Context { return s.ctx }
func (s yamlScope) Options() *bitserializer.Options { return s.opts }
func (s yamlScope) Mode() bitserializer.Mode        { return s.mode }
func (s yamlScope) Traits() bitserializer.Traits    { return traits }
func (s yamlScope) Close() error                    { return nil }

func (s yamlScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

func (s yamlScope) indexPath(i int) string { return s.childPath(strconv.Itoa(i)) }

// rootScope is kept distinct from objectScope for the same reason the XML
// and in-memory test backends are: ObjectOpener's and ArrayOpener's
// unkeyed Open*Scope share a name with ObjectScope's keyed ones but not a
// signature, so embedding the keyed scope type here would silently fail
// dispatch's type assertions instead of satisfying them.
type rootScope struct {
	yamlScope
	node *yaml.Node
}

func (r *rootScope) Finalize() error { return nil }

func (r *rootScope) Value(ptr any) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		return true, setYAMLPrimitive(r.node, ptr)
	}
	if r.node.Kind != yaml.ScalarNode || r.node.Tag == "!!null" {
		return false, nil
	}
	return readYAMLPrimitive(r.node, ptr, r.opts, r.path)
}

func (r *rootScope) String(ptr *string) (bool, error) {
	if r.mode == bitserializer.ModeSave {
		r.node.Kind, r.node.Tag, r.node.Value = yaml.ScalarNode, "!!str", *ptr
		return true, nil
	}
	if r.node.Kind != yaml.ScalarNode || r.node.Tag == "!!null" {
		return false, nil
	}
	*ptr = r.node.Value
	return true, nil
}

func (r *rootScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if r.mode == bitserializer.ModeSave {
		r.node.Kind, r.node.Tag, r.node.Content = yaml.MappingNode, "!!map", make([]*yaml.Node, 0, nFieldsHint*2)
		return &objectScope{r.yamlScope, r.node}, true
	}
	if r.node.Kind != yaml.MappingNode {
		return nil, false
	}
	return &objectScope{r.yamlScope, r.node}, true
}

func (r *rootScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if r.mode == bitserializer.ModeSave {
		r.node.Kind, r.node.Tag, r.node.Content = yaml.SequenceNode, "!!seq", make([]*yaml.Node, 0, size)
		return &arrayScope{r.yamlScope, r.node, 0}, true
	}
	if r.node.Kind != yaml.SequenceNode {
		return nil, false
	}
	return &arrayScope{r.yamlScope, r.node, 0}, true
}

// objectScope wraps a MappingNode. Content holds alternating key/value
// nodes; find/put scan that pair list rather than maintaining a side index,
// since a typical Serialize method's field count is small.
type objectScope struct {
	yamlScope
	node *yaml.Node
}

func (s *objectScope) find(key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(s.node.Content); i += 2 {
		if s.node.Content[i].Value == key {
			return s.node.Content[i+1], true
		}
	}
	return nil, false
}

func (s *objectScope) put(key string, val *yaml.Node) {
	for i := 0; i+1 < len(s.node.Content); i += 2 {
		if s.node.Content[i].Value == key {
			s.node.Content[i+1] = val
			return
		}
	}
	s.node.Content = append(s.node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
}

func (s *objectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{}
		if err := setYAMLPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.put(key, child)
		return true, nil
	}
	child, ok := s.find(key)
	if !ok || child.Tag == "!!null" {
		return false, nil
	}
	return readYAMLPrimitive(child, ptr, s.opts, s.childPath(key))
}

func (s *objectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.put(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *ptr})
		return true, nil
	}
	child, ok := s.find(key)
	if !ok || child.Tag == "!!null" {
		return false, nil
	}
	if child.Kind != yaml.ScalarNode {
		return mismatchedOrSkip(s.opts, s.childPath(key), "expected a scalar string")
	}
	*ptr = child.Value
	return true, nil
}

func (s *objectScope) OpenObjectScope(key string, nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: make([]*yaml.Node, 0, nFieldsHint*2)}
		s.put(key, child)
		return &objectScope{yamlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child}, true
	}
	child, ok := s.find(key)
	if !ok || child.Kind != yaml.MappingNode {
		return nil, false
	}
	return &objectScope{yamlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child}, true
}

func (s *objectScope) OpenArrayScope(key string, size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, size)}
		s.put(key, child)
		return &arrayScope{yamlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
	}
	child, ok := s.find(key)
	if !ok || child.Kind != yaml.SequenceNode {
		return nil, false
	}
	return &arrayScope{yamlScope{s.ctx, s.opts, s.mode, s.childPath(key)}, child, 0}, true
}

func (s *objectScope) VisitKeys(fn func(key string) error) error {
	for i := 0; i+1 < len(s.node.Content); i += 2 {
		if err := fn(s.node.Content[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectScope) EstimatedSize() int { return len(s.node.Content) / 2 }

// arrayScope wraps a SequenceNode.
type arrayScope struct {
	yamlScope
	node *yaml.Node
	pos  int
}

func (s *arrayScope) Value(ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{}
		if err := setYAMLPrimitive(child, ptr); err != nil {
			return false, err
		}
		s.node.Content = append(s.node.Content, child)
		return true, nil
	}
	if s.pos >= len(s.node.Content) {
		return false, nil
	}
	child := s.node.Content[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.Tag == "!!null" {
		return false, nil
	}
	return readYAMLPrimitive(child, ptr, s.opts, path)
}

func (s *arrayScope) String(ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.node.Content = append(s.node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *ptr})
		return true, nil
	}
	if s.pos >= len(s.node.Content) {
		return false, nil
	}
	child := s.node.Content[s.pos]
	path := s.indexPath(s.pos)
	s.pos++
	if child.Tag == "!!null" {
		return false, nil
	}
	if child.Kind != yaml.ScalarNode {
		return mismatchedOrSkip(s.opts, path, "expected a scalar string")
	}
	*ptr = child.Value
	return true, nil
}

func (s *arrayScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: make([]*yaml.Node, 0, nFieldsHint*2)}
		s.node.Content = append(s.node.Content, child)
		return &objectScope{yamlScope{s.ctx, s.opts, s.mode, s.indexPath(len(s.node.Content) - 1)}, child}, true
	}
	if s.pos >= len(s.node.Content) {
		return nil, false
	}
	child := s.node.Content[s.pos]
	path := s.indexPath(s.pos)
	if child.Kind != yaml.MappingNode {
		return nil, false
	}
	s.pos++
	return &objectScope{yamlScope{s.ctx, s.opts, s.mode, path}, child}, true
}

func (s *arrayScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	if s.mode == bitserializer.ModeSave {
		child := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, size)}
		s.node.Content = append(s.node.Content, child)
		return &arrayScope{yamlScope{s.ctx, s.opts, s.mode, s.indexPath(len(s.node.Content) - 1)}, child, 0}, true
	}
	if s.pos >= len(s.node.Content) {
		return nil, false
	}
	child := s.node.Content[s.pos]
	path := s.indexPath(s.pos)
	if child.Kind != yaml.SequenceNode {
		return nil, false
	}
	s.pos++
	return &arrayScope{yamlScope{s.ctx, s.opts, s.mode, path}, child, 0}, true
}

func (s *arrayScope) IsEnd() bool        { return s.pos >= len(s.node.Content) }
func (s *arrayScope) Size() int          { return len(s.node.Content) }
func (s *arrayScope) EstimatedSize() int { return len(s.node.Content) }

func mismatchedOrSkip(opts *bitserializer.Options, path, message string) (bool, error) {
	if opts.MismatchedTypesPolicy == bitserializer.MismatchedTypesSkip {
		return false, nil
	}
	return false, bitserializer.NewMismatchedTypesError(path, message)
}

// setYAMLPrimitive writes ptr's value into n as a freshly-tagged scalar. An
// absent Optional/nil pointer writes an explicit "!!null" scalar (dispatch's
// nil-value sentinel), matching how yaml.v3 itself renders a nil interface.
func setYAMLPrimitive(n *yaml.Node, ptr any) error {
	n.Kind = yaml.ScalarNode
	switch v := ptr.(type) {
	case *bool:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(*v)
	case *int:
		n.Tag, n.Value = "!!int", strconv.FormatInt(int64(*v), 10)
	case *int8:
		n.Tag, n.Value = "!!int", strconv.FormatInt(int64(*v), 10)
	case *int16:
		n.Tag, n.Value = "!!int", strconv.FormatInt(int64(*v), 10)
	case *int32:
		n.Tag, n.Value = "!!int", strconv.FormatInt(int64(*v), 10)
	case *int64:
		n.Tag, n.Value = "!!int", strconv.FormatInt(*v, 10)
	case *uint:
		n.Tag, n.Value = "!!int", strconv.FormatUint(uint64(*v), 10)
	case *uint8:
		n.Tag, n.Value = "!!int", strconv.FormatUint(uint64(*v), 10)
	case *uint16:
		n.Tag, n.Value = "!!int", strconv.FormatUint(uint64(*v), 10)
	case *uint32:
		n.Tag, n.Value = "!!int", strconv.FormatUint(uint64(*v), 10)
	case *uint64:
		n.Tag, n.Value = "!!int", strconv.FormatUint(*v, 10)
	case *float32:
		n.Tag, n.Value = "!!float", strconv.FormatFloat(float64(*v), 'g', -1, 32)
	case *float64:
		n.Tag, n.Value = "!!float", strconv.FormatFloat(*v, 'g', -1, 64)
	case *any:
		if *v != nil {
			return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("yaml: unsupported value %T", *v))
		}
		n.Tag, n.Value = "!!null", "null"
	default:
		return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("yaml: unsupported primitive target %T", ptr))
	}
	return nil
}

func readYAMLPrimitive(n *yaml.Node, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	if n.Kind != yaml.ScalarNode {
		return mismatchedOrSkip(opts, path, "expected a scalar")
	}
	if b, ok := ptr.(*bool); ok {
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected bool")
		}
		*b = v
		return true, nil
	}
	switch n.Tag {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			if u, uerr := strconv.ParseUint(n.Value, 10, 64); uerr == nil {
				return assignUint(u, ptr, opts, path)
			}
			return mismatchedOrSkip(opts, path, "expected integer")
		}
		return assignInt(i, ptr, opts, path)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected float")
		}
		return assignFloat(f, ptr, opts, path)
	default:
		return mismatchedOrSkip(opts, path, "expected a number")
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
	case *float32:
		*v = float32(i)
	case *float64:
		*v = float64(i)
	default:
		return false, bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return true, nil
}

func assignUint(u uint64, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	policy := opts.OverflowNumberPolicy
	switch v := ptr.(type) {
	case *uint64:
		*v = u
	case *uint:
		r, err := bitserializer.ConvertNumber[uint64, uint](u, policy)
		if err != nil {
			return false, withPath(err, path)
		}
		*v = r
	case *float32:
		*v = float32(u)
	case *float64:
		*v = float64(u)
	default:
		return false, bitserializer.NewOverflowError(path, "value does not fit the target's signed range")
	}
	return true, nil
}

func assignFloat(f float64, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	switch v := ptr.(type) {
	case *float32:
		*v = float32(f)
	case *float64:
		*v = f
	default:
		return false, bitserializer.NewMismatchedTypesError(path, "refusing to narrow a float into an integer target")
	}
	return true, nil
}

func withPath(err error, path string) error {
	if se, ok := err.(*bitserializer.SerializationError); ok {
		se.Path = path
		return se
	}
	return err
}
