// Package mason models the hypermedia envelopes the book club API returns:
// payload fields and an @controls map side by side in one JSON object, with
// listings carrying their members under "items".
//
// Controls are the only source of what the client may do next. The relation
// vocabulary is a closed set of constants; controls under unknown relations
// survive decoding but nothing follows them.
package mason
