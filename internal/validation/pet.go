// Package validation checks pet attribute sets before any side effect runs.
// Failures are ordinary values partitioned by field name, never panics: the
// caller renders one message list per field.
package validation

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxFieldLen = 50
	// MaxImageSize is the largest accepted image upload in bytes.
	MaxImageSize = 20 * 1024 * 1024
	// BirthdayLayout is the wire format for the birthday field.
	BirthdayLayout = "2006-01-02"
)

// acceptedImageTypes are the two media types the image store takes.
var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Errors maps a field name to its ordered list of messages.
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Error carries field errors through an error return.
type Error struct {
	Fields Errors
}

func (e *Error) Error() string {
	return "validation failed"
}

// PetForm is the raw attribute set as submitted. A nil field was not present
// in the input, which on update means "leave unchanged".
type PetForm struct {
	Name     *string
	Category *string
	Birthday *string
	Gender   *string
}

// PetAttributes is a fully validated, normalized attribute set.
type PetAttributes struct {
	Name     string
	Category string
	Birthday time.Time
	Gender   string
}

// PetPatch holds only the fields that were supplied and validated. A nil
// field must not be written.
type PetPatch struct {
	Name     *string
	Category *string
	Birthday *time.Time
	Gender   *string
}

// Validate applies the full creation schema. All fields are required.
func Validate(form PetForm) (PetAttributes, Errors) {
	errs := Errors{}
	attrs := PetAttributes{}

	attrs.Name = checkText(errs, "name", "Pet name", form.Name, true)
	attrs.Category = checkText(errs, "category", "Category", form.Category, true)

	if bday, ok := checkBirthday(errs, form.Birthday, true); ok {
		attrs.Birthday = bday
	}
	if gender, ok := checkGender(errs, form.Gender, true); ok {
		attrs.Gender = gender
	}

	return attrs, errs
}

// ValidatePartial applies the update schema: every field is optional, but a
// supplied field is held to the same constraints as on creation.
func ValidatePartial(form PetForm) (PetPatch, Errors) {
	errs := Errors{}
	patch := PetPatch{}

	if form.Name != nil {
		name := checkText(errs, "name", "Pet name", form.Name, false)
		patch.Name = &name
	}
	if form.Category != nil {
		category := checkText(errs, "category", "Category", form.Category, false)
		patch.Category = &category
	}
	if form.Birthday != nil {
		if bday, ok := checkBirthday(errs, form.Birthday, false); ok {
			patch.Birthday = &bday
		}
	}
	if form.Gender != nil {
		if gender, ok := checkGender(errs, form.Gender, false); ok {
			patch.Gender = &gender
		}
	}

	return patch, errs
}

// ValidateImage checks attached file metadata. A zero-size file is treated
// as "no image supplied" and passes.
func ValidateImage(contentType string, size int64) Errors {
	errs := Errors{}
	if size == 0 {
		return errs
	}
	if size > MaxImageSize {
		errs.add("image", "Image size must be less than 20MB")
	}
	if !acceptedImageTypes[strings.ToLower(contentType)] {
		errs.add("image", "Image must be JPEG or PNG format")
	}
	return errs
}

func checkText(errs Errors, field, label string, value *string, required bool) string {
	raw := ""
	if value != nil {
		raw = *value
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if required || value != nil {
			errs.add(field, label+" is required")
		}
		return ""
	}
	if utf8.RuneCountInString(trimmed) > maxFieldLen {
		errs.add(field, label+" must be less than 50 characters")
	}
	return trimmed
}

func checkBirthday(errs Errors, value *string, required bool) (time.Time, bool) {
	raw := ""
	if value != nil {
		raw = strings.TrimSpace(*value)
	}
	if raw == "" {
		if required || value != nil {
			errs.add("birthday", "Birthday is required")
		}
		return time.Time{}, false
	}
	bday, err := time.Parse(BirthdayLayout, raw)
	if err != nil {
		errs.add("birthday", "Birthday must be a valid date")
		return time.Time{}, false
	}
	if bday.After(time.Now()) {
		errs.add("birthday", "Birthday cannot be in the future")
		return time.Time{}, false
	}
	if bday.Year() < 1900 {
		errs.add("birthday", "Birthday must be after year 1900")
		return time.Time{}, false
	}
	return bday, true
}

// checkGender is an exact-match enum check; "Male" is not "male".
func checkGender(errs Errors, value *string, required bool) (string, bool) {
	raw := ""
	if value != nil {
		raw = strings.TrimSpace(*value)
	}
	if raw == "" {
		if required || value != nil {
			errs.add("gender", "Gender is required")
		}
		return "", false
	}
	if raw != "male" && raw != "female" {
		errs.add("gender", "Gender must be either male or female")
		return "", false
	}
	return raw, true
}
