// Package models defines the durable EventCall entities as they are
// committed to the repository: events, RSVPs, and manager accounts.
package models

import "time"

// QuestionType enumerates the supported custom-question input kinds.
type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionChoice   QuestionType = "choice"
	QuestionDate     QuestionType = "date"
	QuestionDateTime QuestionType = "datetime"
)

// CustomQuestion is one manager-defined question attached to an event.
// Answers are keyed by the stable ID, not by list position: positional keys
// misattribute answers after a reorder or delete.
type CustomQuestion struct {
	// ID is stable for the lifetime of the question.
	ID string `json:"id"`

	// Question is the prompt shown to guests.
	Question string `json:"question"`

	Type QuestionType `json:"type"`

	// Choices applies to QuestionChoice only.
	Choices []string `json:"choices,omitempty"`

	Required bool `json:"required"`
}

// Event status values.
const (
	EventStatusActive   = "active"
	EventStatusArchived = "archived"
)

// DetailField is one free-form labeled value in an event's details map.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Event is stored as events/<id>.json.
type Event struct {
	// ID is a UUID assigned at creation and never changes; edits
	// re-dispatch with the same ID.
	ID string `json:"id"`

	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`

	// CoverImage is a repository-relative image reference.
	CoverImage string `json:"coverImage,omitempty"`

	AskReason          bool `json:"askReason"`
	AllowGuests        bool `json:"allowGuests"`
	RequiresMealChoice bool `json:"requiresMealChoice"`

	// Questions keeps manager-defined order.
	Questions []CustomQuestion `json:"customQuestions,omitempty"`

	// Details maps field id to its label/value pair.
	Details map[string]DetailField `json:"eventDetails,omitempty"`

	// Creator identity.
	CreatedBy    string `json:"createdBy"`
	CreatorEmail string `json:"creatorEmail,omitempty"`

	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`

	// Status is "active" unless the manager archives the event.
	Status string `json:"status"`
}
