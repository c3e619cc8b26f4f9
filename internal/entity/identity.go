package entity

import "reflect"

// Identity returns the formatted identity of v, or "" when v's type has no
// valid identity or the identity is unset.
func Identity(v any) string {
	s, err := SchemaFor(v)
	if err != nil {
		return ""
	}
	id, err := s.IdentityField()
	if err != nil {
		return ""
	}
	return id.Format(v)
}

// Equal reports whether a and b are the same entity: same type and equal,
// non-empty identity.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	for ta.Kind() == reflect.Pointer {
		ta = ta.Elem()
	}
	for tb.Kind() == reflect.Pointer {
		tb = tb.Elem()
	}
	if ta != tb {
		return false
	}
	ida := Identity(a)
	return ida != "" && ida == Identity(b)
}

// ClearUnsettable zeroes the identity and immutable fields of the struct v
// points to. Drafts built from an existing entity are passed through it
// before creation.
func ClearUnsettable(v any) error {
	s, err := SchemaFor(v)
	if err != nil {
		return err
	}
	for _, f := range s.fields {
		if f.identity || f.immutable {
			if err := f.Set(v, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
