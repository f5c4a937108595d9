package note

import (
	"errors"
	"time"
)

const (
	TitleMaxLength = 100
	SlugMaxLength  = 100

	// DefaultTitle is stored when a note is submitted without a title.
	DefaultTitle = "Note title"
)

var (
	ErrNotFound  = errors.New("note not found")
	ErrNoAuthor  = errors.New("note has no author")
	ErrBadAuthor = errors.New("note author does not exist")

	// ErrSlugTaken is returned by repositories when the unique slug constraint rejects a save.
	ErrSlugTaken = errors.New("slug already taken")

	// ErrEmptySlug means no slug was given and none could be derived from the title.
	ErrEmptySlug = errors.New("slug could not be derived from title")
)

// Note is a short text note owned by a single user and addressed by its slug.
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Text      string    `json:"text" bson:"text"`
	Slug      string    `json:"slug" bson:"slug"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (n *Note) String() string { return n.Title }

// Clone returns a shallow copy so callers cannot mutate stored state.
func (n *Note) Clone() *Note {
	c := *n
	return &c
}
