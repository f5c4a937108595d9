package note

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/yanote/notes/backend/go-services/pkg/logger"
)

// SlugTakenMessage is appended to the slug when the store rejects it as a duplicate.
const SlugTakenMessage = " - such slug already exists, choose a unique value"

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Form is the user-editable part of a note, bound from form posts or JSON.
type Form struct {
	Title string `form:"title" json:"title" binding:"max=100"`
	Text  string `form:"text" json:"text" binding:"required,notblank"`
	Slug  string `form:"slug" json:"slug" binding:"omitempty,max=100,slug"`
}

// FormFor pre-fills a form from an existing note.
func FormFor(n *Note) Form {
	return Form{Title: n.Title, Text: n.Text, Slug: n.Slug}
}

var registerOnce sync.Once

// formValidations are the custom tags used by Form.
var formValidations = map[string]validator.Func{
	"slug": func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	},
	"notblank": validators.NotBlank,
}

// RegisterValidators installs the Form tags on gin's validator engine. Safe to call repeatedly.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.Errorf("form validators not registered: unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := registerValidations(v, formValidations); err != nil {
			logger.Errorf("form validators not registered: %v", err)
		}
	})
}

func registerValidations(v *validator.Validate, fns map[string]validator.Func) error {
	for tag, fn := range fns {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}

// FieldErrors turns a binding error into field -> message pairs suitable for re-rendering a form.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["__all__"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			out[field] = "This field is required."
		case "max":
			out[field] = fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		case "slug":
			out[field] = "Use only Latin letters, digits, hyphens and underscores."
		default:
			out[field] = fmt.Sprintf("Invalid value (%s).", fe.Tag())
		}
	}
	return out
}
