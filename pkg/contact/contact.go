// Package contact validates contact-form submissions.
package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"moderation/pkg/censor"
)

// ErrModerationUnavailable means the message could not be moderated yet and the submission
// must not go through.
var ErrModerationUnavailable = errors.New("message moderation unavailable")

const (
	MsgRequired = "This field is required"
	MsgName     = "Enter First and Last name, each starting with uppercase"
	MsgPhone    = "Please enter a valid phone number"
	MsgEmail    = "Please enter a valid email address"
	MsgLanguage = "Please avoid using inappropriate language"
)

var (
	namePattern  = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Misspellings of popular mail providers that are rejected outright.
var invalidDomains = map[string]struct{}{
	"gnail.com":   {},
	"gamil.com":   {},
	"hotnail.com": {},
	"yaho.com":    {},
	"outlok.com":  {},
}

type Form struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// FieldErrors maps a form field (by its JSON name) to the text shown next to it.
type FieldErrors map[string]string

// Moderator is the part of censor.Censor the validator depends on.
type Moderator interface {
	Check(text string) (bool, error)
}

type Validator struct {
	mod Moderator
}

func NewValidator(mod Moderator) *Validator {
	return &Validator{mod: mod}
}

// Validate checks every field of f. It returns ErrModerationUnavailable when the message
// cannot be moderated yet; otherwise the returned FieldErrors is empty for a valid form.
func (v *Validator) Validate(f Form) (FieldErrors, error) {
	errs := make(FieldErrors)

	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		errs["name"] = MsgRequired
	case !namePattern.MatchString(name):
		errs["name"] = MsgName
	}

	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = MsgRequired
	case !validEmail(email):
		errs["email"] = MsgEmail
	}

	phone := strings.TrimSpace(f.Phone)
	switch {
	case phone == "":
		errs["phone"] = MsgRequired
	case !validPhone(phone):
		errs["phone"] = MsgPhone
	}

	msg := strings.TrimSpace(f.Message)
	if msg == "" {
		errs["message"] = MsgRequired
		return errs, nil
	}

	flagged, err := v.mod.Check(msg)
	if err != nil {
		if errors.Is(err, censor.ErrNotReady) {
			return errs, ErrModerationUnavailable
		}
		return errs, fmt.Errorf("failed to moderate message: %w", err)
	}
	if flagged {
		errs["message"] = MsgLanguage
	}

	return errs, nil
}

func validEmail(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	_, bad := invalidDomains[domain]
	return !bad
}

// validPhone accepts numbers in international format that libphonenumber considers valid.
func validPhone(phone string) bool {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
