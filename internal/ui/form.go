package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/entity"
)

// formField is one labelled input bound to a record field.
type formField struct {
	field    entity.Field
	input    textinput.Model
	readOnly bool
}

// form edits one record. Creating forms start empty and keep whatever the
// user typed across rejected submissions.
type form struct {
	section  browse.Section
	creating bool
	entry    browse.Entry
	fields   []formField
	focus    int
	message  string // last rejection, shown above the fields
	pending  bool
}

// newCreateForm lays out every field; only immutable non-identity fields
// are locked since nothing can set them.
func newCreateForm(s browse.Section) *form {
	f := &form{section: s, creating: true}
	for _, fd := range s.Schema().Fields() {
		f.fields = append(f.fields, newFormField(fd, "", fd.IsImmutable() && !fd.IsIdentity()))
	}
	f.focusFirst()
	return f
}

// newEditForm prefills from the entry; identity and immutable fields are
// shown but locked.
func newEditForm(s browse.Section, e browse.Entry) *form {
	f := &form{section: s, entry: e}
	for _, fd := range s.Schema().Fields() {
		f.fields = append(f.fields, newFormField(fd, fd.Format(e.Payload), !fd.Editable()))
	}
	f.focusFirst()
	return f
}

func newFormField(fd entity.Field, value string, readOnly bool) formField {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 2048
	in.SetValue(value)
	switch fd.Kind {
	case entity.KindEnum:
		in.Placeholder = strings.Join(fd.EnumValues(), " | ")
	case entity.KindBoolean:
		in.Placeholder = "true | false"
	case entity.KindInteger:
		in.Placeholder = "0"
	}
	return formField{field: fd, input: in, readOnly: readOnly}
}

func (f *form) title() string {
	if f.creating {
		return "Add to " + f.section.Label()
	}
	return "Edit " + f.entry.Identity()
}

func (f *form) focusFirst() {
	f.focus = -1
	f.move(1)
}

// move shifts focus by delta over the writable fields, wrapping around.
func (f *form) move(delta int) {
	n := len(f.fields)
	if n == 0 {
		return
	}
	idx := f.focus
	for range n {
		idx = (idx + delta + n) % n
		if !f.fields[idx].readOnly {
			break
		}
	}
	if f.focus >= 0 && f.focus < n {
		f.fields[f.focus].input.Blur()
	}
	f.focus = idx
	if !f.fields[idx].readOnly {
		f.fields[idx].input.Focus()
	}
}

// update feeds msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if f.focus < 0 || f.focus >= len(f.fields) || f.fields[f.focus].readOnly {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// record builds a fresh record from the inputs. Field parse errors are
// joined and nothing is sent.
func (f *form) record() (any, error) {
	rec := f.section.New()
	var errs []error
	for _, ff := range f.fields {
		if err := ff.field.SetText(rec, ff.input.Value()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rec, nil
}
