package models

import (
	"strings"
	"time"
)

// RSVP is a guest response, stored as rsvps/<eventId>/<rsvpId>.json (or as
// one element of the legacy aggregate rsvps/<eventId>.json array).
//
// Within one event there is at most one current RSVP per email address:
// a later submission with a matching email replaces the earlier record in
// place instead of appending.
type RSVP struct {
	// ID is client-generated and scoped to one event.
	ID      string `json:"rsvpId"`
	EventID string `json:"eventId"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	// Attending is tri-state on the wire (absent / true / false) but must
	// be set before submission.
	Attending *bool `json:"attending"`

	GuestCount int    `json:"guestCount"`
	Reason     string `json:"reason,omitempty"`

	// Military affiliation, optional.
	Rank   string `json:"rank,omitempty"`
	Unit   string `json:"unit,omitempty"`
	Branch string `json:"branch,omitempty"`

	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	AllergyDetails      string   `json:"allergyDetails,omitempty"`

	// Answers are keyed by the stable CustomQuestion ID.
	Answers map[string]string `json:"answers,omitempty"`

	// Submission metadata.
	Timestamp        time.Time `json:"timestamp"`
	SubmissionMethod string    `json:"submissionMethod,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	ValidationHash   string    `json:"validationHash,omitempty"`
	CSRFToken        string    `json:"csrfToken,omitempty"`
	EditToken        string    `json:"editToken,omitempty"`
	CheckinToken     string    `json:"checkinToken,omitempty"`

	IsUpdate     bool      `json:"isUpdate,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// NormalizedEmail returns the lowercased, trimmed email used as the natural
// dedup key within an event.
func (r *RSVP) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// IsAttending reports whether the guest confirmed attendance.
func (r *RSVP) IsAttending() bool {
	return r.Attending != nil && *r.Attending
}

// Headcount is this RSVP's contribution to the event total: the attendee
// plus their guests, or zero when not attending.
func (r *RSVP) Headcount() int {
	if !r.IsAttending() {
		return 0
	}
	return 1 + r.GuestCount
}
