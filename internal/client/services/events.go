// Package services implements the event and RSVP operations the CLI calls:
// event CRUD against the content store, RSVP listing across both storage
// layouts, and headcount summaries.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventcall-app/eventcall/internal/client/dispatch"
	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// ContentStore is the slice of the GitHub content layer the services use.
type ContentStore interface {
	GetFile(ctx context.Context, path string) (*github.FileContent, error)
	GetFileJSON(ctx context.Context, path string, out any) (bool, error)
	PutFile(ctx context.Context, path string, value any, message, knownSHA string) (string, error)
	DeleteFile(ctx context.Context, path, message string) error
	ListFilesUnderPrefix(ctx context.Context, prefix string) ([]github.TreeEntry, error)
	FetchBlobsJSON(ctx context.Context, entries []github.TreeEntry, newItem func() any, collect func(path string, item any)) error
}

// EventService manages the events/ directory of the backing repository.
// Writes go through the dispatch transport so the backend automation owns
// the commit; the direct file write is the fallback when dispatch fails.
type EventService struct {
	store     ContentStore
	transport dispatch.Transport
	logger    logging.Logger

	now func() time.Time // test seam
}

func NewEventService(store ContentStore, transport dispatch.Transport, logger logging.Logger) *EventService {
	return &EventService{
		store:     store,
		transport: transport,
		logger:    logger.With("component", "events"),
		now:       time.Now,
	}
}

func eventPath(eventID string) string {
	return fmt.Sprintf("%s/%s.json", common.EventsDir, eventID)
}

// Create assigns an ID if the event has none, stamps timestamps, and
// commits the event file. An ID collision surfaces as a conflict rather
// than a silent overwrite.
func (s *EventService) Create(ctx context.Context, e *models.Event, creator string) (*models.Event, error) {
	if e.Title == "" {
		return nil, fmt.Errorf("%w: event title is required", common.ErrValidation)
	}
	if e.Date == "" {
		return nil, fmt.Errorf("%w: event date is required", common.ErrValidation)
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.now().UTC()
	e.CreatedBy = creator
	e.CreatedAt = now
	e.LastModified = now
	if e.Status == "" {
		e.Status = models.EventStatusActive
	}

	existing, err := s.store.GetFile(ctx, eventPath(e.ID))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: event %s already exists", common.ErrConflict, e.ID)
	}

	message := fmt.Sprintf("Create event: %s", e.Title)
	if err := s.persist(ctx, "create_event", e, message, ""); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "event created", "event", e.ID, "title", e.Title)
	return e, nil
}

// persist hands the event to the backend automation via dispatch. A failed
// dispatch, or a local transport that only acknowledges, falls back to a
// direct file write so the event is still committed.
func (s *EventService) persist(ctx context.Context, eventType string, e *models.Event, message, knownSHA string) error {
	res, err := s.transport.Dispatch(ctx, eventType, e)
	if err == nil && !res.Local {
		return nil
	}
	if err != nil {
		s.logger.Warn(ctx, "event dispatch failed, writing directly", "event", e.ID, "error", err)
	}
	_, err = s.store.PutFile(ctx, eventPath(e.ID), e, message, knownSHA)
	return err
}

// Get fetches a single event by ID.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	var e models.Event
	found, err := s.store.GetFileJSON(ctx, eventPath(eventID), &e)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: event %s", common.ErrNotFound, eventID)
	}
	return &e, nil
}

// Update rewrites an existing event file under its current SHA so a
// concurrent edit shows up as a conflict.
func (s *EventService) Update(ctx context.Context, e *models.Event) (*models.Event, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: event id is required", common.ErrValidation)
	}

	existing, err := s.store.GetFile(ctx, eventPath(e.ID))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: event %s", common.ErrNotFound, e.ID)
	}

	e.LastModified = s.now().UTC()

	// Edit is a re-dispatch carrying the same event id. The SHA precondition
	// only guards the direct fallback write.
	message := fmt.Sprintf("Update event: %s", e.Title)
	if err := s.persist(ctx, "update_event", e, message, existing.SHA); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the event file and every RSVP file recorded under it,
// including the legacy aggregate file when present. RSVP cleanup failures
// are logged but do not undo the event deletion.
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	message := fmt.Sprintf("Delete event %s", eventID)
	if err := s.store.DeleteFile(ctx, eventPath(eventID), message); err != nil {
		return err
	}

	entries, err := s.store.ListFilesUnderPrefix(ctx, fmt.Sprintf("%s/%s", common.RSVPsDir, eventID))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "rsvp cleanup listing failed", "event", eventID, "error", err)
		entries = nil
	}
	for _, entry := range entries {
		if err := s.store.DeleteFile(ctx, entry.Path, message); err != nil {
			s.logger.Warn(ctx, "rsvp cleanup failed", "path", entry.Path, "error", err)
		}
	}
	if err := s.store.DeleteFile(ctx, fmt.Sprintf("%s/%s.json", common.RSVPsDir, eventID), message); err != nil {
		s.logger.Warn(ctx, "aggregate rsvp cleanup failed", "event", eventID, "error", err)
	}

	s.logger.Info(ctx, "event deleted", "event", eventID)
	return nil
}

// List fetches every event file under events/ in one tree pass.
func (s *EventService) List(ctx context.Context) ([]*models.Event, error) {
	entries, err := s.store.ListFilesUnderPrefix(ctx, common.EventsDir)
	if err != nil {
		return nil, err
	}

	var events []*models.Event
	err = s.store.FetchBlobsJSON(ctx, entries,
		func() any { return new(models.Event) },
		func(_ string, item any) {
			events = append(events, item.(*models.Event))
		})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Summary aggregates headcount for one event.
type Summary struct {
	EventID   string
	Title     string
	Responses int
	Attending int
	Declined  int
	Headcount int
}

// Summarize computes the attendance summary from an RSVP list.
func Summarize(e *models.Event, rsvps []*models.RSVP) Summary {
	s := Summary{EventID: e.ID, Title: e.Title, Responses: len(rsvps)}
	for _, r := range rsvps {
		if r.IsAttending() {
			s.Attending++
			s.Headcount += r.Headcount()
		} else {
			s.Declined++
		}
	}
	return s
}
