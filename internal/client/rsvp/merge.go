package rsvp

import "github.com/eventcall-app/eventcall/internal/client/models"

// Merge folds an incoming RSVP into an event's list, keyed by normalized
// email. A matching entry is replaced in place so the list keeps its
// submission order; otherwise the RSVP is appended. The returned flag
// reports whether an existing entry was replaced.
func Merge(list []*models.RSVP, incoming *models.RSVP) ([]*models.RSVP, bool) {
	key := incoming.NormalizedEmail()
	incoming.Email = key
	for i, existing := range list {
		if existing.NormalizedEmail() == key {
			incoming.IsUpdate = true
			list[i] = incoming
			return list, true
		}
	}
	return append(list, incoming), false
}
