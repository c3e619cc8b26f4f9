package mason

import (
	"encoding/json"
	"sort"
)

// ContentType is sent as Accept on reads and Content-Type on writes.
const ContentType = "application/vnd.mason+json"

// Relation names the client knows how to act on. Controls under any other
// relation are kept on the envelope but never followed.
const (
	RelSelf       = "self"
	RelEdit       = "edit"
	RelDelete     = "delete"
	RelAdd        = "add"
	RelCollection = "collection"
	RelHome       = "bc:home"
	RelUsers      = "bc:users-all"
	RelClubs      = "bc:clubs-all"
	RelBooks      = "bc:books-all"
)

var relationLabels = map[string]string{
	RelSelf:       "Self",
	RelEdit:       "Edit",
	RelDelete:     "Delete",
	RelAdd:        "Add",
	RelCollection: "Collection",
	RelHome:       "Home",
	RelUsers:      "Users",
	RelClubs:      "Clubs",
	RelBooks:      "Books",
}

// KnownRelation reports whether rel belongs to the recognised vocabulary.
func KnownRelation(rel string) bool {
	_, ok := relationLabels[rel]
	return ok
}

// RelationLabel returns the display label for rel, or rel itself when it is
// not part of the vocabulary.
func RelationLabel(rel string) string {
	if label, ok := relationLabels[rel]; ok {
		return label
	}
	return rel
}

// CollectionRelations lists the top-level listing relations in display order.
func CollectionRelations() []string {
	return []string{RelUsers, RelClubs, RelBooks}
}

// Control is a server-declared link to a next action.
type Control struct {
	Href        string          `json:"href"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Method      string          `json:"method,omitempty"`
	Encoding    string          `json:"encoding,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	SchemaURL   string          `json:"schemaUrl,omitempty"`
}

// DisplayName returns the control title when the server supplied one.
func (c Control) DisplayName() (string, bool) {
	return c.Title, c.Title != ""
}

// Controls maps relation names to controls.
type Controls map[string]Control

// Get returns the control for rel.
func (cs Controls) Get(rel string) (Control, bool) {
	c, ok := cs[rel]
	if !ok || c.Href == "" {
		return Control{}, false
	}
	return c, true
}

// Has reports whether a followable control exists for rel.
func (cs Controls) Has(rel string) bool {
	_, ok := cs.Get(rel)
	return ok
}

// Href returns the href for rel, or "" when absent.
func (cs Controls) Href(rel string) string {
	c, _ := cs.Get(rel)
	return c.Href
}

// Label prefers the control's own title over the vocabulary label.
func (cs Controls) Label(rel string) string {
	if c, ok := cs.Get(rel); ok {
		if name, ok := c.DisplayName(); ok {
			return name
		}
	}
	return RelationLabel(rel)
}

// Known returns the recognised relations present, sorted.
func (cs Controls) Known() []string {
	var rels []string
	for rel := range cs {
		if KnownRelation(rel) && cs.Has(rel) {
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)
	return rels
}

// Clone returns an independent copy.
func (cs Controls) Clone() Controls {
	if cs == nil {
		return nil
	}
	out := make(Controls, len(cs))
	for rel, c := range cs {
		if c.Schema != nil {
			c.Schema = append(json.RawMessage(nil), c.Schema...)
		}
		out[rel] = c
	}
	return out
}
