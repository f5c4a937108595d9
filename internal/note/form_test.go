package note

import (
	"errors"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestFormValidation(t *testing.T) {
	RegisterValidators()
	RegisterValidators()

	require.NoError(t, binding.Validator.ValidateStruct(&Form{Title: "t", Text: "body"}))
	require.NoError(t, binding.Validator.ValidateStruct(&Form{Text: "body", Slug: "My_slug-1"}))

	err := binding.Validator.ValidateStruct(&Form{Title: strings.Repeat("x", 101), Slug: "bad slug!"})
	require.Error(t, err)
	fields := FieldErrors(err)
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "text")
	require.Contains(t, fields, "slug")
	require.Equal(t, "This field is required.", fields["text"])
}

func TestBlankTextIsRequired(t *testing.T) {
	RegisterValidators()

	err := binding.Validator.ValidateStruct(&Form{Title: "t", Text: " \t\n "})
	require.Error(t, err)
	require.Equal(t, map[string]string{"text": "This field is required."}, FieldErrors(err))
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, registerValidations(v, formValidations))
	require.NoError(t, v.Struct(&Form{Text: "body", Slug: "ok-slug"}))
	require.Error(t, v.Struct(&Form{Text: "body", Slug: "not ok"}))

	err := registerValidations(validator.New(), map[string]validator.Func{"": formValidations["slug"]})
	require.Error(t, err)
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	fields := FieldErrors(errors.New("EOF"))
	require.Equal(t, map[string]string{"__all__": "EOF"}, fields)
}

func TestFormFor(t *testing.T) {
	n := &Note{Title: "T", Text: "x", Slug: "t"}
	require.Equal(t, Form{Title: "T", Text: "x", Slug: "t"}, FormFor(n))
}
