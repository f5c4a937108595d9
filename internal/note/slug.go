package note

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify transliterates title into a lowercase, hyphen-separated slug capped at SlugMaxLength.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > SlugMaxLength {
		s = s[:SlugMaxLength]
	}
	return s
}

// ResolveSlug returns explicit when set, otherwise the slug derived from title.
// Uniqueness is left to the repository.
func ResolveSlug(title, explicit string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	s := Slugify(title)
	if s == "" {
		return "", ErrEmptySlug
	}
	return s, nil
}
