// Package validate trims, sanitizes and schema-checks contact form drafts.
package validate

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/brightside-studio/backend/internal/model"
)

// Field bounds, counted in characters.
const (
	MaxName     = 100
	MaxEmail    = 255
	MaxPhone    = 20
	MaxMessage  = 2000
	MaxBudget   = 50
	MaxTimeline = 50
)

// contactSchema has the same fields as model.ContactFields so one converts to
// the other directly. Field order decides which error is reported first.
type contactSchema struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,nomarkup,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Message  string `json:"message" validate:"required,max=2000"`
	Budget   string `json:"budget" validate:"omitempty,max=50"`
	Timeline string `json:"timeline" validate:"omitempty,max=50"`
}

var (
	policy = bluemonday.StrictPolicy()
	schema = newSchema()
)

func newSchema() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// The email is stored and relayed as typed, so characters that could open
	// or quote markup are refused even where RFC 5322 would allow them.
	_ = v.RegisterValidation("nomarkup", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), markupChars)
	})
	return v
}

const markupChars = "<>\"`&"

// FieldError identifies the first field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Sanitize reduces s to plain text: every HTML element is dropped and
// character references are decoded, so "Tom &amp; Jerry" and "Tom & Jerry"
// read the same. Line endings become "\n". The result is not safe to render;
// model.ValidatedSubmission.Record escapes it for storage.
// Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	// Decoding can surface new markup ("&lt;b&gt;"), so repeat until nothing
	// changes.
	for range maxSanitizePasses {
		next := html.UnescapeString(policy.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return s
}

const maxSanitizePasses = 8

func clean(s string) string {
	return strings.TrimSpace(Sanitize(strings.TrimSpace(s)))
}

// Validate turns a draft into a ValidatedSubmission or returns a *FieldError.
// Free-text fields are reduced to plain text before the length checks, so a
// bound counts the characters the visitor typed, not their escaped form. The
// email is format-checked rather than sanitized.
func Validate(d model.SubmissionDraft) (model.ValidatedSubmission, error) {
	f := d.Fields
	fields := model.ContactFields{
		Name:     clean(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Phone:    clean(f.Phone),
		Message:  clean(f.Message),
		Budget:   clean(f.Budget),
		Timeline: clean(f.Timeline),
	}

	if err := schema.Struct(contactSchema(fields)); err != nil {
		return model.ValidatedSubmission{}, fieldError(err)
	}
	return model.ValidatedSubmission{Kind: d.Kind, Fields: fields}, nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Message: messageFor(fe)}
}

var labels = map[string]string{
	"name":     "Name",
	"phone":    "Phone number",
	"message":  "Message",
	"budget":   "Budget",
	"timeline": "Timeline",
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	if field == "email" {
		return "Invalid email address."
	}
	switch fe.Tag() {
	case "required":
		if field == "name" {
			return "Please enter your name"
		}
		if field == "message" {
			return "Please enter a message"
		}
		return labels[field] + " is required"
	case "max":
		return fmt.Sprintf("%s must be %s characters or fewer", labels[field], fe.Param())
	}
	return labels[field] + " is invalid"
}
