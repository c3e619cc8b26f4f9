// Package browse navigates the API by following the controls resources
// offer rather than building URLs.
//
// Navigation starts at the root returned by Browser.Root, whose controls
// link to the user, club and book collections. Load follows one of those,
// Refresh re-reads an item through its self control, and Edit, Create and
// Delete act through edit, add and delete. An action whose control is
// absent fails with ErrNoControl (ErrNotEditable for edit) before anything
// is sent.
//
// The generic functions work on mason envelopes of a concrete record type.
// Section wraps them behind a type-erased interface for the terminal UI.
package browse
