// Package model holds the bookclub domain records exchanged with the API.
package model

import (
	"errors"

	"github.com/five82/bookclub/internal/entity"
)

// User is a member, identified by username.
type User struct {
	Username    string `json:"username" entity:"id" label:"Username"`
	Description string `json:"description,omitempty"`
}

// Club is a reading club. Owner is assigned by the server from the caller.
type Club struct {
	Handle      string `json:"handle" entity:"id"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`
}

// Book is a catalogue entry.
type Book struct {
	Handle      string `json:"handle" entity:"id"`
	Name        string `json:"full_name" label:"Full name"`
	Description string `json:"description,omitempty"`
	Pages       *int   `json:"pages,omitempty"`
}

// ReadingStatus is a user's progress through a book.
type ReadingStatus string

const (
	StatusPending   ReadingStatus = "pending"
	StatusReading   ReadingStatus = "reading"
	StatusCompleted ReadingStatus = "completed"
)

// Values lists the wire values in display order.
func (ReadingStatus) Values() []string {
	return []string{string(StatusPending), string(StatusReading), string(StatusCompleted)}
}

// UserBook is a book on one user's shelf. It shares the book's identity.
type UserBook struct {
	Book
	User     string         `json:"user,omitempty" entity:"immutable"`
	Status   *ReadingStatus `json:"reading_status,omitempty" label:"Reading status"`
	Reviewed *bool          `json:"reviewed,omitempty"`
	Ignored  *bool          `json:"ignored,omitempty"`
	Liked    *bool          `json:"liked,omitempty"`
	AtPage   *int           `json:"current_page,omitempty" label:"Current page"`
}

// Comment is a post in a discussion. Its uuid is server assigned.
type Comment struct {
	UUID    string `json:"uuid,omitempty" entity:"id,immutable" label:"UUID"`
	User    string `json:"user,omitempty"`
	Content string `json:"content"`
}

// Review is a user's rating of a book. It has no identity of its own, so it
// travels as a payload but cannot be addressed as an entity.
type Review struct {
	User    string `json:"user"`
	Book    string `json:"book"`
	Stars   int    `json:"stars"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Validate checks the metadata of every addressable record type.
func Validate() error {
	checks := []func() (*entity.Schema, error){
		entity.SchemaOf[User],
		entity.SchemaOf[Club],
		entity.SchemaOf[Book],
		entity.SchemaOf[UserBook],
		entity.SchemaOf[Comment],
	}
	var errs []error
	for _, schema := range checks {
		s, err := schema()
		if err == nil {
			err = s.Validate()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
