package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/client/rsvp"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// RSVPService reads responses for an event from the backing repository.
// Two layouts coexist: the current one-file-per-RSVP directory and the
// legacy whole-event JSON array, which older automation still writes.
type RSVPService struct {
	store  ContentStore
	logger logging.Logger
}

func NewRSVPService(store ContentStore, logger logging.Logger) *RSVPService {
	return &RSVPService{store: store, logger: logger.With("component", "rsvps")}
}

// List returns every RSVP for the event, merged across both layouts and
// deduplicated by email with per-file entries winning. Results are sorted
// by submission time, oldest first.
func (s *RSVPService) List(ctx context.Context, event *models.Event) ([]*models.RSVP, error) {
	var merged []*models.RSVP

	legacy, err := s.listLegacy(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range legacy {
		merged, _ = rsvp.Merge(merged, r)
	}

	perFile, err := s.listPerFile(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range perFile {
		merged, _ = rsvp.Merge(merged, r)
	}

	for _, r := range merged {
		rsvp.RekeyAnswers(r, event.Questions)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged, nil
}

func (s *RSVPService) listPerFile(ctx context.Context, eventID string) ([]*models.RSVP, error) {
	prefix := fmt.Sprintf("%s/%s", common.RSVPsDir, eventID)
	entries, err := s.store.ListFilesUnderPrefix(ctx, prefix)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []*models.RSVP
	err = s.store.FetchBlobsJSON(ctx, entries,
		func() any { return new(models.RSVP) },
		func(path string, item any) {
			r := item.(*models.RSVP)
			if r.ID == "" {
				r.ID = idFromPath(path)
			}
			if r.EventID == "" {
				r.EventID = eventID
			}
			out = append(out, r)
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RSVPService) listLegacy(ctx context.Context, eventID string) ([]*models.RSVP, error) {
	var list []*models.RSVP
	found, err := s.store.GetFileJSON(ctx, rsvp.AggregatePath(eventID), &list)
	if err != nil || !found {
		return nil, err
	}
	for _, r := range list {
		if r.EventID == "" {
			r.EventID = eventID
		}
	}
	return list, nil
}

// Delete removes one guest's RSVP: the per-file copy, and the matching
// entry inside the legacy aggregate file when one is still there.
func (s *RSVPService) Delete(ctx context.Context, eventID, rsvpID string) error {
	message := fmt.Sprintf("Remove RSVP %s for event %s", rsvpID, eventID)
	if err := s.store.DeleteFile(ctx, rsvp.PerRSVPPath(eventID, rsvpID), message); err != nil {
		return err
	}

	if err := s.deleteFromAggregate(ctx, eventID, rsvpID, message); err != nil {
		return err
	}

	s.logger.Info(ctx, "rsvp deleted", "event", eventID, "rsvp", rsvpID)
	return nil
}

func (s *RSVPService) deleteFromAggregate(ctx context.Context, eventID, rsvpID, message string) error {
	path := rsvp.AggregatePath(eventID)
	file, err := s.store.GetFile(ctx, path)
	if err != nil || file == nil {
		return err
	}

	var list []*models.RSVP
	if err := json.Unmarshal(file.Content, &list); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	kept := list[:0]
	for _, r := range list {
		if r.ID != rsvpID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(list) {
		return nil
	}

	_, err = s.store.PutFile(ctx, path, kept, message, file.SHA)
	return err
}

// FindByEmail locates a guest's existing RSVP so an edit can reuse its ID.
func (s *RSVPService) FindByEmail(ctx context.Context, event *models.Event, email string) (*models.RSVP, error) {
	list, err := s.List(ctx, event)
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(email))
	for _, r := range list {
		if r.NormalizedEmail() == key {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: no rsvp from %s", common.ErrNotFound, email)
}

func idFromPath(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".json")
}
