package rsvp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/common"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ExtractFromIssueBody recovers the RSVP payload embedded in a tier-3
// fallback issue. The body must contain exactly the fenced JSON block the
// pipeline wrote; anything else is treated as malformed.
func ExtractFromIssueBody(body string) (*models.RSVP, error) {
	m := fencedJSON.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("%w: issue body has no fenced json block", common.ErrMalformedResponse)
	}

	var r models.RSVP
	if err := json.Unmarshal([]byte(m[1]), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return &r, nil
}

var legacyAnswerKey = regexp.MustCompile(`^custom_(\d+)$`)

// RekeyAnswers rewrites legacy positional answer keys ("custom_0",
// "custom_1", ...) to the stable question IDs of the event they answer.
// Keys that are already question IDs, or whose position has no matching
// question, pass through unchanged.
func RekeyAnswers(r *models.RSVP, questions []models.CustomQuestion) {
	if len(r.Answers) == 0 {
		return
	}
	rekeyed := make(map[string]string, len(r.Answers))
	for key, val := range r.Answers {
		if m := legacyAnswerKey.FindStringSubmatch(key); m != nil {
			idx, _ := strconv.Atoi(m[1])
			if idx < len(questions) && questions[idx].ID != "" {
				key = questions[idx].ID
			}
		}
		rekeyed[key] = val
	}
	r.Answers = rekeyed
}

// AnswerFor returns the guest's answer to a question, checking the stable
// ID first and the legacy positional key second.
func AnswerFor(r *models.RSVP, q models.CustomQuestion, position int) (string, bool) {
	if v, ok := r.Answers[q.ID]; ok {
		return v, true
	}
	v, ok := r.Answers[fmt.Sprintf("custom_%d", position)]
	return v, ok
}
