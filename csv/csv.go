// Package csv is the CSV Backend. A CSV document is a header line naming
// fields in the order they were first serialized, followed by one data line
// per record. The root value determines the shape: a single aggregate Saves
// and Loads as a header plus exactly one data line; a slice of aggregates
// Saves and Loads as a header shared by every element plus one data line per
// element (spec.md §8 scenario 4). There is no third-party CSV library
// anywhere in the retrieved pack (see DESIGN.md), so this backend builds on
// encoding/csv, the same way json/xml lean on encoding/json and
// encoding/xml.
//
// A record itself has no nested structure: its object scope does not
// implement ObjectOpener, ArrayOpener or BinaryOpener — a CSV cell is always
// a flat primitive, never a nested object or array.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	bitserializer "github.com/bitserializer/bitserializer-go"
)

var traits = bitserializer.Traits{
	PathSeparator: '/',
	IsBinary:      false,
	ArchiveType:   "csv",
}

// Backend implements bitserializer.Backend for CSV.
type Backend struct{}

// New returns a CSV Backend.
func New() bitserializer.Backend { return Backend{} }

func (Backend) ArchiveType() string { return "csv" }

func (Backend) NewSaveScope(ctx *bitserializer.Context, opts *bitserializer.Options) bitserializer.RootScope {
	return &rootScope{csvScope{ctx: ctx, opts: opts, mode: bitserializer.ModeSave}, &document{}}
}

func (Backend) NewLoadScope(data []byte, ctx *bitserializer.Context, opts *bitserializer.Options) (bitserializer.RootScope, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &rootScope{csvScope{ctx: ctx, opts: opts, mode: bitserializer.ModeLoad}, doc}, nil
}

func (Backend) Render(scope bitserializer.RootScope) ([]byte, error) {
	root, ok := scope.(*rootScope)
	if !ok {
		return nil, bitserializer.NewParsingError("csv: Render called with a scope this backend did not create")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(root.doc.header); err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	for _, rec := range root.doc.rows {
		if err := w.Write(rec); err != nil {
			return nil, bitserializer.NewParsingError(err.Error())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	return buf.Bytes(), nil
}

// document holds every record written or read during one operation: the
// header shared by all of them (column order, set by the first record) and
// each record's values in that order.
type document struct {
	header []string
	rows   [][]string
}

// commitRow appends r to the document, establishing the header from the
// first record committed and re-keying every later record against it so
// records built in a different field order still line up column-for-column.
func (d *document) commitRow(r *row) error {
	if d.header == nil {
		d.header = append([]string(nil), r.keys...)
		d.rows = append(d.rows, append([]string(nil), r.values...))
		return nil
	}
	values := make([]string, len(d.header))
	for i, key := range d.header {
		v, ok := r.get(key)
		if !ok {
			return bitserializer.NewMismatchedTypesError("", fmt.Sprintf("csv: record is missing field %q present in an earlier record", key))
		}
		values[i] = v
	}
	d.rows = append(d.rows, values)
	return nil
}

// row is the one record currently being built (Save) or read (Load).
type row struct {
	keys   []string
	values []string
}

func (r *row) put(key, value string) {
	for i, k := range r.keys {
		if k == key {
			r.values[i] = value
			return
		}
	}
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

func (r *row) get(key string) (string, bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return "", false
}

func decodeDocument(data []byte) (*document, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, bitserializer.NewParsingError(err.Error())
	}
	if len(records) == 0 {
		return &document{}, nil
	}
	return &document{header: records[0], rows: records[1:]}, nil
}

type csvScope struct {
	ctx  *bitserializer.Context
	opts *bitserializer.Options
	mode bitserializer.Mode
	path string
}

func (s csvScope) Path() string                    { return s.path }
func (s csvScope) Context() *bitserializer.Context { return s.ctx }
func (s csvScope) Options() *bitserializer.Options { return s.opts }
func (s csvScope) Mode() bitserializer.Mode        { return s.mode }
func (s csvScope) Traits() bitserializer.Traits    { return traits }
func (s csvScope) Close() error                    { return nil }

func (s csvScope) childPath(key string) string {
	if s.path == "" {
		return "/" + key
	}
	return s.path + "/" + key
}

func (s csvScope) indexPath(i int) string {
	return fmt.Sprintf("%s/%d", s.path, i)
}

// rootScope is kept distinct from objectScope/arrayScope: the root's unkeyed
// OpenObjectScope(n)/OpenArrayScope(n) arity and the keyed/positional ones
// share a name only.
type rootScope struct {
	csvScope
	doc *document
}

func (r *rootScope) Finalize() error { return nil }

// OpenObjectScope opens the document as a single record — a header plus
// exactly one data line.
func (r *rootScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if r.mode == bitserializer.ModeSave {
		rb := &row{keys: make([]string, 0, nFieldsHint), values: make([]string, 0, nFieldsHint)}
		return &objectScope{r.csvScope, rb, r.doc}, true
	}
	if len(r.doc.rows) != 1 {
		return nil, false
	}
	rb := &row{keys: r.doc.header, values: r.doc.rows[0]}
	return &objectScope{r.csvScope, rb, r.doc}, true
}

// OpenArrayScope opens the document as a list of records sharing one
// header — spec.md §8 scenario 4.
func (r *rootScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	return &arrayScope{r.csvScope, r.doc, 0}, true
}

// objectScope implements bitserializer.ObjectScope over one record. It does
// not implement ObjectOpener/ArrayOpener/BinaryOpener: a CSV cell is flat,
// so those type assertions fail and dispatch falls back to whatever the
// trait system reports as unsupported.
type objectScope struct {
	csvScope
	row *row
	doc *document
}

// Close commits the finished record into the document (Save only); Load
// has nothing to flush back.
func (s *objectScope) Close() error {
	if s.mode == bitserializer.ModeSave {
		return s.doc.commitRow(s.row)
	}
	return nil
}

func (s *objectScope) Value(key string, ptr any) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		cell, err := formatCSVPrimitive(ptr)
		if err != nil {
			return false, err
		}
		s.row.put(key, cell)
		return true, nil
	}
	cell, ok := s.row.get(key)
	if !ok {
		return false, nil
	}
	return readCSVPrimitive(cell, ptr, s.opts, s.childPath(key))
}

func (s *objectScope) String(key string, ptr *string) (bool, error) {
	if s.mode == bitserializer.ModeSave {
		s.row.put(key, *ptr)
		return true, nil
	}
	cell, ok := s.row.get(key)
	if !ok {
		return false, nil
	}
	*ptr = cell
	return true, nil
}

// OpenObjectScope and OpenArrayScope always report ok=false: a CSV record
// is flat, so the ObjectScope interface is satisfied but nesting within a
// record is never available. This is distinct from BinaryOpener, which this
// type simply never implements at all.
func (s *objectScope) OpenObjectScope(key string, nFieldsHint int) (bitserializer.ObjectScope, bool) {
	return nil, false
}

func (s *objectScope) OpenArrayScope(key string, size int) (bitserializer.ArrayScope, bool) {
	return nil, false
}

func (s *objectScope) VisitKeys(fn func(key string) error) error {
	for _, k := range s.row.keys {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *objectScope) EstimatedSize() int { return len(s.row.keys) }

// arrayScope implements bitserializer.ArrayScope over the document's
// records: each element is itself an object scope for one record, never a
// bare primitive, since CSV has no shape for a scalar array element.
type arrayScope struct {
	csvScope
	doc *document
	pos int
}

func (s *arrayScope) Value(ptr any) (bool, error) {
	return mismatchedOrSkip(s.opts, s.indexPath(s.pos), "csv: array elements must be records, not bare values")
}

func (s *arrayScope) String(ptr *string) (bool, error) {
	return mismatchedOrSkip(s.opts, s.indexPath(s.pos), "csv: array elements must be records, not bare values")
}

func (s *arrayScope) OpenObjectScope(nFieldsHint int) (bitserializer.ObjectScope, bool) {
	if s.mode == bitserializer.ModeSave {
		rb := &row{keys: make([]string, 0, nFieldsHint), values: make([]string, 0, nFieldsHint)}
		return &objectScope{s.csvScope, rb, s.doc}, true
	}
	if s.pos >= len(s.doc.rows) {
		return nil, false
	}
	rb := &row{keys: s.doc.header, values: s.doc.rows[s.pos]}
	s.pos++
	return &objectScope{s.csvScope, rb, s.doc}, true
}

// OpenArrayScope always reports ok=false: a CSV record cannot itself hold a
// nested array, so an array of arrays has no representation.
func (s *arrayScope) OpenArrayScope(size int) (bitserializer.ArrayScope, bool) {
	return nil, false
}

func (s *arrayScope) IsEnd() bool        { return s.pos >= len(s.doc.rows) }
func (s *arrayScope) Size() int          { return len(s.doc.rows) }
func (s *arrayScope) EstimatedSize() int { return len(s.doc.rows) }

func mismatchedOrSkip(opts *bitserializer.Options, path, message string) (bool, error) {
	if opts.MismatchedTypesPolicy == bitserializer.MismatchedTypesSkip {
		return false, nil
	}
	return false, bitserializer.NewMismatchedTypesError(path, message)
}

// formatCSVPrimitive renders ptr's pointee as the literal text of a CSV
// cell. *any is accepted only as dispatch's nil-value sentinel, which
// dispatch writes for an absent Optional or a nil pointer on Save; CSV has no
// distinct null representation, so that write renders as an empty cell.
func formatCSVPrimitive(ptr any) (string, error) {
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
	case *any:
		if *v == nil {
			return "", nil
		}
		return "", bitserializer.NewMismatchedTypesError("", fmt.Sprintf("csv: unsupported value %T", *v))
	default:
		return "", bitserializer.NewMismatchedTypesError("", fmt.Sprintf("csv: unsupported primitive target %T", ptr))
	}
}

// readCSVPrimitive parses cell's literal text into ptr. CSV carries no type
// tag, so numeric destinations are parsed directly in their own base/width
// rather than routed through a shared int64/float64 staging value the way
// JSON's json.Number does — there is no ambiguity to resolve since the
// destination type is already known.
func readCSVPrimitive(cell string, ptr any, opts *bitserializer.Options, path string) (bool, error) {
	policy := opts.OverflowNumberPolicy
	switch v := ptr.(type) {
	case *bool:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected bool")
		}
		*v = b
		return true, nil
	case *int, *int8, *int16, *int32, *int64:
		i, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected integer")
		}
		return true, assignFromInt64(i, ptr, policy, path)
	case *uint, *uint8, *uint16, *uint32, *uint64:
		u, err := strconv.ParseUint(cell, 10, 64)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected unsigned integer")
		}
		return true, assignFromUint64(u, ptr, policy, path)
	case *float32, *float64:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return mismatchedOrSkip(opts, path, "expected number")
		}
		return true, assignFromFloat64(f, ptr, policy, path)
	default:
		return false, bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("csv: unsupported primitive target %T", v))
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
	default:
		return bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return nil
}

func assignFromUint64(u uint64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	switch v := ptr.(type) {
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
	case *uint64:
		*v = u
	default:
		return bitserializer.NewMismatchedTypesError(path, fmt.Sprintf("unsupported numeric target %T", ptr))
	}
	return nil
}

func assignFromFloat64(f float64, ptr any, policy bitserializer.OverflowNumberPolicy, path string) error {
	switch v := ptr.(type) {
	case *float32:
		r, err := bitserializer.ConvertNumber[float64, float32](f, policy)
		if err != nil {
			return withPath(err, path)
		}
		*v = r
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
