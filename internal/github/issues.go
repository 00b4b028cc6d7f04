package github

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// IssueService covers the Issues API surface EventCall uses: creating
// fallback RSVP issues, listing issues during auth-response polling, and
// closing consumed responses.
type IssueService struct {
	client *Client
}

func NewIssueService(client *Client) *IssueService {
	return &IssueService{client: client}
}

// Issue is the subset of issue fields the correlation protocol reads.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Create opens an issue with the given labels and returns it.
func (s *IssueService) Create(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	req := map[string]any{
		"title":  title,
		"body":   body,
		"labels": labels,
	}
	var issue Issue
	err := s.client.Do(ctx, http.MethodPost, s.client.RepoPath("issues"), req, &issue, "create issue")
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns issues in the given state ("open", "closed", or "all"),
// newest first. The correlation protocol depends on this ordering: the
// first title match wins.
func (s *IssueService) List(ctx context.Context, state string, perPage int) ([]Issue, error) {
	path := fmt.Sprintf("%s?state=%s&sort=created&direction=desc&per_page=%d",
		s.client.RepoPath("issues"), state, perPage)

	var issues []Issue
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &issues, "list issues"); err != nil {
		return nil, err
	}
	return issues, nil
}

// Close transitions an issue to the closed state.
func (s *IssueService) Close(ctx context.Context, number int) error {
	path := fmt.Sprintf("%s/%d", s.client.RepoPath("issues"), number)
	body := map[string]string{"state": "closed"}
	return s.client.Do(ctx, http.MethodPatch, path, body, nil, fmt.Sprintf("close issue #%d", number))
}
