// Package entity derives field metadata from struct tags.
//
// A domain type declares its shape once, in the struct:
//
//	type Book struct {
//		Handle string `json:"handle" entity:"id" label:"Handle"`
//		Name   string `json:"name" label:"Title"`
//		Pages  *int   `json:"pages,omitempty"`
//	}
//
// The json tag gives the wire name. entity:"id" marks the single identity
// field; entity:"immutable" marks fields that can be set when the entity is
// created but never edited. Pointer fields are optional. Embedded structs are
// flattened, so a type that embeds Book inherits its identity.
//
// Supported element types are strings, integers, booleans and string enums
// (string types implementing Enum). Untagged fields of other types are
// ignored; tagged ones are a *MetadataError.
//
// Schemas are parsed once per type and cached. A type with zero or several
// identity fields still yields a Schema, but IdentityField and Validate
// report the problem. Call MustSchema at startup to fail fast.
package entity
