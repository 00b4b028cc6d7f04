// Package common contains shared constants and sentinel errors used across
// EventCall components.
package common

const (
	// AuthResponsePrefix is the issue-title marker that correlates an
	// asynchronous authentication response with its originating request.
	// The full title is AuthResponsePrefix + clientID.
	AuthResponsePrefix = "AUTH_RESPONSE::"

	// DefaultBranch is the branch holding all committed JSON files.
	DefaultBranch = "main"
)

// Repository layout for durable entities. Events and users are one file per
// entity; RSVPs exist in two layouts: a per-RSVP file (newer) and a legacy
// aggregate array per event.
const (
	EventsDir = "events"
	RSVPsDir  = "rsvps"
	UsersDir  = "users"
)
