package entity

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind is the declared element type of a field.
type Kind int

const (
	KindText Kind = iota + 1
	KindInteger
	KindBoolean
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Enum is implemented by string types with a closed value set.
type Enum interface {
	Values() []string
}

// Field describes one scalar field of an entity.
type Field struct {
	Name     string
	WireName string
	Label    string
	Kind     Kind
	Optional bool

	identity   bool
	immutable  bool
	index      []int
	typ        reflect.Type
	enumValues []string
}

// IsIdentity reports whether the field identifies the entity.
func (f Field) IsIdentity() bool { return f.identity }

// IsImmutable reports whether the field may only be set at creation.
func (f Field) IsImmutable() bool { return f.immutable }

// Editable reports whether an edit may change the field.
func (f Field) Editable() bool { return !f.identity && !f.immutable }

// EnumValues returns the allowed values of an enum field.
func (f Field) EnumValues() []string { return slices.Clone(f.enumValues) }

func (f Field) value(instance any) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("entity: %s: nil instance", f.Name)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || len(f.index) == 0 {
		return reflect.Value{}, fmt.Errorf("entity: %s: not a struct instance", f.Name)
	}
	return v.FieldByIndex(f.index), nil
}

// Get returns the field's value on instance, dereferenced. ok is false when
// an optional field is unset.
func (f Field) Get(instance any) (any, bool) {
	v, err := f.value(instance)
	if err != nil {
		return nil, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	return v.Interface(), true
}

// Format renders the field's value for display; unset optional fields render
// as "".
func (f Field) Format(instance any) string {
	val, ok := f.Get(instance)
	if !ok {
		return ""
	}
	return fmt.Sprint(val)
}

// Set assigns value to the field on instance, which must be a pointer. A nil
// value clears the field.
func (f Field) Set(instance any, value any) error {
	if reflect.TypeOf(instance) == nil || reflect.TypeOf(instance).Kind() != reflect.Pointer {
		return fmt.Errorf("entity: %s: set requires a pointer", f.Name)
	}
	dst, err := f.value(instance)
	if err != nil {
		return err
	}
	if value == nil {
		dst.SetZero()
		return nil
	}

	src := reflect.ValueOf(value)
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		src = src.Elem()
	}
	if !src.Type().ConvertibleTo(f.typ) || src.Kind() != f.typ.Kind() && !numeric(src.Kind(), f.typ.Kind()) {
		return fmt.Errorf("entity: %s: cannot assign %s to %s", f.Name, src.Type(), f.typ)
	}
	converted := src.Convert(f.typ)
	if f.Kind == KindEnum && !slices.Contains(f.enumValues, converted.String()) {
		return fmt.Errorf("entity: %s: %q is not one of %s", f.Name, converted.String(), strings.Join(f.enumValues, ", "))
	}

	if dst.Kind() == reflect.Pointer {
		ptr := reflect.New(f.typ)
		ptr.Elem().Set(converted)
		dst.Set(ptr)
		return nil
	}
	dst.Set(converted)
	return nil
}

func numeric(a, b reflect.Kind) bool {
	return integer(a) && integer(b)
}

func integer(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func overflows(t reflect.Type, n int64) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return n < 0 || t.OverflowUint(uint64(n))
	}
	return t.OverflowInt(n)
}

// SetText parses text per the field's kind and assigns it. Blank text clears
// the field.
func (f Field) SetText(instance any, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return f.Set(instance, nil)
	}
	switch f.Kind {
	case KindText, KindEnum:
		return f.Set(instance, text)
	case KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("entity: %s: %q is not a whole number", f.Label, text)
		}
		if overflows(f.typ, n) {
			return fmt.Errorf("entity: %s: %d out of range", f.Label, n)
		}
		return f.Set(instance, n)
	case KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("entity: %s: %q is not true or false", f.Label, text)
		}
		return f.Set(instance, b)
	}
	return fmt.Errorf("entity: %s: unsupported kind %s", f.Name, f.Kind)
}
