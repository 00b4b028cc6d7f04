// Package rsvp implements guest RSVP submission: validation, the
// three-tier delivery fallback, and the email-keyed merge rules for
// per-event RSVP collections.
package rsvp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the fields required before any network attempt is made.
func Validate(r *models.RSVP) error {
	if strings.TrimSpace(r.EventID) == "" {
		return fmt.Errorf("%w: event id is required", common.ErrValidation)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email %q is not valid", common.ErrValidation, email)
	}
	if r.Attending == nil {
		return fmt.Errorf("%w: attending must be answered", common.ErrValidation)
	}
	return nil
}
