package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// ErrMetadata is wrapped by every *MetadataError.
var ErrMetadata = errors.New("entity: invalid metadata")

// MetadataError reports a domain type whose declaration breaks the metadata
// rules. It is a programming error and is not worth retrying.
type MetadataError struct {
	Type   string
	Field  string
	Reason string
}

func (e *MetadataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("entity: %s.%s: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("entity: %s: %s", e.Type, e.Reason)
}

func (e *MetadataError) Unwrap() error { return ErrMetadata }

// Schema is the field classification of one struct type.
type Schema struct {
	typ      reflect.Type
	fields   []Field
	identity int
	idErr    error
}

type cached struct {
	schema *Schema
	err    error
}

var schemas sync.Map // reflect.Type -> cached

// SchemaOf returns the schema of T, which must be a struct or pointer to one.
func SchemaOf[T any]() (*Schema, error) {
	return schemaFor(reflect.TypeFor[T]())
}

// SchemaFor returns the schema of v's dynamic type.
func SchemaFor(v any) (*Schema, error) {
	if v == nil {
		return nil, &MetadataError{Type: "<nil>", Reason: "no type"}
	}
	return schemaFor(reflect.TypeOf(v))
}

// MustSchema is SchemaOf for startup checks: it panics unless T parses and
// has exactly one identity field.
func MustSchema[T any]() *Schema {
	s, err := SchemaOf[T]()
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		panic(err)
	}
	return s
}

func schemaFor(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if v, ok := schemas.Load(t); ok {
		c := v.(cached)
		return c.schema, c.err
	}
	s, err := parse(t)
	v, _ := schemas.LoadOrStore(t, cached{schema: s, err: err})
	c := v.(cached)
	return c.schema, c.err
}

func parse(t reflect.Type) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, &MetadataError{Type: t.String(), Reason: "not a struct"}
	}
	s := &Schema{typ: t, identity: -1}
	if err := s.collect(t, nil); err != nil {
		return nil, err
	}

	var ids []string
	for i, f := range s.fields {
		if f.identity {
			ids = append(ids, f.Name)
			s.identity = i
		}
	}
	switch len(ids) {
	case 1:
	case 0:
		s.identity = -1
		s.idErr = &MetadataError{Type: t.String(), Reason: "no identity field"}
	default:
		s.identity = -1
		s.idErr = &MetadataError{
			Type:   t.String(),
			Reason: fmt.Sprintf("%d identity fields (%s)", len(ids), strings.Join(ids, ", ")),
		}
	}
	return s, nil
}

func (s *Schema) collect(t reflect.Type, prefix []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		jsonName, skip := wireName(sf)
		if skip {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && jsonName == "" {
			if err := s.collect(sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		field, ok, err := newField(t, sf, index, jsonName)
		if err != nil {
			return err
		}
		if ok {
			s.fields = append(s.fields, field)
		}
	}
	return nil
}

func wireName(sf reflect.StructField) (string, bool) {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, false
}

func newField(owner reflect.Type, sf reflect.StructField, index []int, jsonName string) (Field, bool, error) {
	f := Field{
		Name:     sf.Name,
		WireName: jsonName,
		index:    index,
	}
	if f.WireName == "" {
		f.WireName = sf.Name
	}

	tagged := false
	if tag, ok := sf.Tag.Lookup("entity"); ok {
		tagged = true
		for _, token := range strings.Split(tag, ",") {
			switch strings.TrimSpace(token) {
			case "id":
				f.identity = true
			case "immutable":
				f.immutable = true
			case "":
			default:
				return Field{}, false, &MetadataError{
					Type:   owner.String(),
					Field:  sf.Name,
					Reason: fmt.Sprintf("unknown entity tag %q", token),
				}
			}
		}
	}
	if label, ok := sf.Tag.Lookup("label"); ok {
		tagged = true
		f.Label = label
	}
	if f.Label == "" {
		f.Label = humanize(f.WireName)
	}

	typ := sf.Type
	if typ.Kind() == reflect.Pointer {
		f.Optional = true
		typ = typ.Elem()
	}
	f.typ = typ

	kind, values := classify(typ)
	if kind == 0 {
		if tagged {
			return Field{}, false, &MetadataError{
				Type:   owner.String(),
				Field:  sf.Name,
				Reason: fmt.Sprintf("unsupported field type %s", sf.Type),
			}
		}
		return Field{}, false, nil
	}
	f.Kind = kind
	f.enumValues = values
	return f, true, nil
}

var enumType = reflect.TypeFor[Enum]()

func classify(t reflect.Type) (Kind, []string) {
	switch t.Kind() {
	case reflect.String:
		if t.Implements(enumType) {
			return KindEnum, reflect.Zero(t).Interface().(Enum).Values()
		}
		return KindText, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, nil
	case reflect.Bool:
		return KindBoolean, nil
	}
	return 0, nil
}

func humanize(wire string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(wire))
	if len(words) == 0 {
		return wire
	}
	text := strings.ToLower(strings.Join(words, " "))
	r := []rune(text)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Type returns the struct type the schema describes.
func (s *Schema) Type() reflect.Type { return s.typ }

// Name returns the struct type's name.
func (s *Schema) Name() string { return s.typ.Name() }

// Validate reports a broken identity declaration.
func (s *Schema) Validate() error { return s.idErr }

// Fields returns every scalar field in declaration order, embedded structs
// flattened in place.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks a field up by Go name or wire name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name || f.WireName == name {
			return f, true
		}
	}
	return Field{}, false
}

// IdentityField returns the single identity field.
func (s *Schema) IdentityField() (Field, error) {
	if s.idErr != nil {
		return Field{}, s.idErr
	}
	return s.fields[s.identity], nil
}

// ImmutableFields returns the fields settable only at creation.
func (s *Schema) ImmutableFields() []Field {
	return s.filter(func(f Field) bool { return f.immutable })
}

// ModifiableFields returns every field except the identity.
func (s *Schema) ModifiableFields() []Field {
	return s.filter(func(f Field) bool { return !f.identity })
}

// EditableFields returns the fields an edit may change: neither identity nor
// immutable.
func (s *Schema) EditableFields() []Field {
	return s.filter(Field.Editable)
}

func (s *Schema) filter(keep func(Field) bool) []Field {
	var out []Field
	for _, f := range s.fields {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// New returns a pointer to a fresh zero value of the schema's type.
func (s *Schema) New() any {
	return reflect.New(s.typ).Interface()
}
