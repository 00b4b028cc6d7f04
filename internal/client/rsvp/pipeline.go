package rsvp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventcall-app/eventcall/internal/client/dispatch"
	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/github"
	"github.com/eventcall-app/eventcall/internal/logging"
)

// Submission methods, in fallback order.
const (
	MethodDirectFile       = "direct_file"
	MethodWorkflowDispatch = "workflow_dispatch"
	MethodGitHubIssue      = "github_issue"
)

// FileStore is the slice of the content store the pipeline writes through.
type FileStore interface {
	GetFile(ctx context.Context, path string) (*github.FileContent, error)
	PutFile(ctx context.Context, path string, value any, message, knownSHA string) (string, error)
}

// IssueCreator opens the tier-3 fallback issue.
type IssueCreator interface {
	Create(ctx context.Context, title, body string, labels []string) (*github.Issue, error)
}

// Result reports which tier persisted the RSVP.
type Result struct {
	Method   string
	IsUpdate bool
}

// Pipeline persists a guest RSVP through an ordered fallback chain: a
// direct file write, then a workflow dispatch, then a GitHub Issue a
// scraping job ingests later. Each tier runs only if the previous one
// failed, and every tier's failure is preserved in the aggregate error.
type Pipeline struct {
	store     FileStore
	transport dispatch.Transport
	issues    IssueCreator
	logger    logging.Logger

	now func() time.Time // test seam
}

func NewPipeline(store FileStore, transport dispatch.Transport, issues IssueCreator, logger logging.Logger) *Pipeline {
	return &Pipeline{
		store:     store,
		transport: transport,
		issues:    issues,
		logger:    logger.With("component", "rsvp"),
		now:       time.Now,
	}
}

// PerRSVPPath is the newer one-file-per-RSVP layout.
func PerRSVPPath(eventID, rsvpID string) string {
	return fmt.Sprintf("rsvps/%s/%s.json", eventID, rsvpID)
}

// AggregatePath is the legacy whole-event array layout.
func AggregatePath(eventID string) string {
	return fmt.Sprintf("rsvps/%s.json", eventID)
}

// Submit validates and persists the RSVP, returning the tier that
// succeeded. Validation failures abort before any network call.
func (p *Pipeline) Submit(ctx context.Context, r *models.RSVP) (*Result, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	sanitize(r)
	// Email is the dedup key across both storage layouts; store it lowercased.
	r.Email = r.NormalizedEmail()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := p.now().UTC()
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	r.LastModified = now

	var failures []error

	res, err := p.submitDirect(ctx, r)
	if err == nil {
		return res, nil
	}
	failures = append(failures, fmt.Errorf("direct file write: %w", err))
	p.logger.Warn(ctx, "direct write failed, trying dispatch", "event", r.EventID, "error", err)

	res, err = p.submitDispatch(ctx, r)
	if err == nil {
		return res, nil
	}
	failures = append(failures, fmt.Errorf("workflow dispatch: %w", err))
	p.logger.Warn(ctx, "dispatch failed, trying issue fallback", "event", r.EventID, "error", err)

	res, err = p.submitIssue(ctx, r)
	if err == nil {
		return res, nil
	}
	failures = append(failures, fmt.Errorf("github issue: %w", err))

	return nil, fmt.Errorf("rsvp submission failed on all tiers: %w", errors.Join(failures...))
}

// submitDirect is tier 1: look up the per-RSVP file to learn whether this
// is a create or an update, then write with the matching commit message and
// SHA precondition.
func (p *Pipeline) submitDirect(ctx context.Context, r *models.RSVP) (*Result, error) {
	path := PerRSVPPath(r.EventID, r.ID)

	existing, err := p.store.GetFile(ctx, path)
	if err != nil {
		return nil, err
	}

	sha := ""
	message := fmt.Sprintf("Add RSVP from %s for event %s", r.Email, r.EventID)
	if existing != nil {
		sha = existing.SHA
		r.IsUpdate = true
		message = fmt.Sprintf("Update RSVP from %s for event %s", r.Email, r.EventID)
	}
	r.SubmissionMethod = MethodDirectFile

	if _, err := p.store.PutFile(ctx, path, r, message, sha); err != nil {
		return nil, err
	}
	return &Result{Method: MethodDirectFile, IsUpdate: r.IsUpdate}, nil
}

// submitDispatch is tier 2: hand the payload to the backend automation.
func (p *Pipeline) submitDispatch(ctx context.Context, r *models.RSVP) (*Result, error) {
	r.SubmissionMethod = MethodWorkflowDispatch
	if _, err := p.transport.Dispatch(ctx, "submit_rsvp", r); err != nil {
		return nil, err
	}
	return &Result{Method: MethodWorkflowDispatch, IsUpdate: r.IsUpdate}, nil
}

// submitIssue is tier 3: embed the RSVP as a fenced JSON block in an issue
// body for the log-scraping job.
func (p *Pipeline) submitIssue(ctx context.Context, r *models.RSVP) (*Result, error) {
	r.SubmissionMethod = MethodGitHubIssue

	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rsvp: %w", err)
	}

	attendLabel := "not-attending"
	if r.IsAttending() {
		attendLabel = "attending"
	}

	title := fmt.Sprintf("RSVP: %s (%s)", r.Name, r.EventID)
	body := fmt.Sprintf("New RSVP submission for event `%s`.\n\n```json\n%s\n```\n", r.EventID, payload)

	if _, err := p.issues.Create(ctx, title, body, []string{"rsvp", "automated", attendLabel}); err != nil {
		return nil, err
	}
	return &Result{Method: MethodGitHubIssue, IsUpdate: r.IsUpdate}, nil
}

func sanitize(r *models.RSVP) {
	r.Name = github.SanitizeText(r.Name)
	r.Phone = github.SanitizeText(r.Phone)
	r.Reason = github.SanitizeText(r.Reason)
	r.Rank = github.SanitizeText(r.Rank)
	r.Unit = github.SanitizeText(r.Unit)
	r.Branch = github.SanitizeText(r.Branch)
	r.AllergyDetails = github.SanitizeText(r.AllergyDetails)
	for i, d := range r.DietaryRestrictions {
		r.DietaryRestrictions[i] = github.SanitizeText(d)
	}
	for k, v := range r.Answers {
		r.Answers[k] = github.SanitizeText(v)
	}
}
