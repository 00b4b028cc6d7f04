package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/client/rsvp"
	"github.com/eventcall-app/eventcall/internal/common"
)

func (a *App) submitRSVP(ctx context.Context, eventID string) {
	event, err := a.events.Get(ctx, eventID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	r := &models.RSVP{EventID: event.ID, UserAgent: "eventcall-cli"}

	if r.Name, err = GetSimpleText(a.reader, "Your name", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if r.Email, err = GetSimpleText(a.reader, "Your email", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	// an existing answer for this email becomes an edit, keeping its ID
	if existing, err := a.rsvps.FindByEmail(ctx, event, r.Email); err == nil {
		fmt.Fprintln(a.out, "Found your earlier answer, this will update it")
		r.ID = existing.ID
	} else if !errors.Is(err, common.ErrNotFound) {
		a.logger.Warn(ctx, "rsvp lookup failed", "event", event.ID, "error", err)
	}

	attending, err := GetYesNo(a.reader, "Will you attend?", true, a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	r.Attending = &attending

	if attending && event.AllowGuests {
		guests, err := GetInt(a.reader, "Number of additional guests", 0, a.out)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return
		}
		r.GuestCount = guests
	}
	if !attending && event.AskReason {
		r.Reason, _ = GetSimpleText(a.reader, "Reason (optional)", a.out)
	}

	for _, q := range event.Questions {
		prompt := q.Question
		if len(q.Choices) > 0 {
			prompt += " (" + strings.Join(q.Choices, ", ") + ")"
		}
		answer, err := GetSimpleText(a.reader, prompt, a.out)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return
		}
		if answer == "" && q.Required {
			fmt.Fprintln(a.out, "This question is required")
			return
		}
		if answer != "" {
			if r.Answers == nil {
				r.Answers = map[string]string{}
			}
			r.Answers[q.ID] = answer
		}
	}

	res, err := a.pipeline.Submit(ctx, r)
	if err != nil {
		fmt.Fprintf(a.out, "Submission failed: %v\n", err)
		return
	}

	if res.IsUpdate {
		fmt.Fprintln(a.out, "RSVP updated, thank you!")
	} else {
		fmt.Fprintln(a.out, "RSVP recorded, thank you!")
	}
	if res.Method != rsvp.MethodDirectFile {
		fmt.Fprintf(a.out, "(delivered via %s)\n", res.Method)
	}
}

func (a *App) listRSVPs(ctx context.Context, eventID string) {
	if a.state.User() == nil {
		fmt.Fprintln(a.out, "Log in first")
		return
	}

	event, err := a.events.Get(ctx, eventID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	list, err := a.rsvps.List(ctx, event)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	a.state.SetRSVPs(event.ID, list)

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No responses yet")
		return
	}
	for _, r := range list {
		status := "declined"
		if r.IsAttending() {
			status = fmt.Sprintf("attending +%d", r.GuestCount)
		}
		fmt.Fprintf(a.out, "%-30s %-30s %s\n", r.Name, r.Email, status)
	}
	fmt.Fprintf(a.out, "Total headcount: %d\n", a.state.Headcount(event.ID))
}
