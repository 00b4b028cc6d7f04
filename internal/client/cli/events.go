package cli

import (
	"context"
	"fmt"

	"github.com/eventcall-app/eventcall/internal/client/models"
	"github.com/eventcall-app/eventcall/internal/client/services"
)

func (a *App) listEvents(ctx context.Context) {
	events, err := a.events.List(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	for _, e := range events {
		a.state.PutEvent(e)
	}

	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events")
		return
	}
	for _, e := range a.state.Events() {
		fmt.Fprintf(a.out, "%s  %s %s  %s\n", e.ID, e.Date, e.Time, e.Title)
	}
}

func (a *App) showEvent(ctx context.Context, eventID string) {
	e, err := a.events.Get(ctx, eventID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	a.state.PutEvent(e)

	fmt.Fprintf(a.out, "%s\n  when: %s %s\n  where: %s\n", e.Title, e.Date, e.Time, e.Location)
	if e.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", e.Description)
	}

	list, err := a.rsvps.List(ctx, e)
	if err != nil {
		fmt.Fprintf(a.out, "error loading rsvps: %v\n", err)
		return
	}
	a.state.SetRSVPs(e.ID, list)

	s := services.Summarize(e, list)
	fmt.Fprintf(a.out, "  responses: %d (%d attending, %d declined), headcount %d\n",
		s.Responses, s.Attending, s.Declined, s.Headcount)
}

func (a *App) createEvent(ctx context.Context) {
	user := a.state.User()
	if user == nil {
		fmt.Fprintln(a.out, "Log in first")
		return
	}

	var e models.Event
	var err error

	if e.Title, err = GetSimpleText(a.reader, "Event title", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if e.Date, err = GetSimpleText(a.reader, "Date (YYYY-MM-DD)", a.out); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	e.Time, _ = GetSimpleText(a.reader, "Time (HH:MM)", a.out)
	e.Location, _ = GetSimpleText(a.reader, "Location", a.out)
	e.Description, _ = GetSimpleText(a.reader, "Description", a.out)
	e.AllowGuests, _ = GetYesNo(a.reader, "Allow additional guests?", true, a.out)
	e.AskReason, _ = GetYesNo(a.reader, "Ask for a reason when declining?", false, a.out)
	e.CreatorEmail = user.Email

	created, err := a.events.Create(ctx, &e, user.Username)
	if err != nil {
		fmt.Fprintf(a.out, "Create failed: %v\n", err)
		return
	}

	a.state.PutEvent(created)
	fmt.Fprintf(a.out, "Created event %s\n", created.ID)
}

func (a *App) editEvent(ctx context.Context, eventID string) {
	if a.state.User() == nil {
		fmt.Fprintln(a.out, "Log in first")
		return
	}

	e, err := a.events.Get(ctx, eventID)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	// empty answers keep current values
	if title, _ := GetSimpleText(a.reader, fmt.Sprintf("Title [%s]", e.Title), a.out); title != "" {
		e.Title = title
	}
	if date, _ := GetSimpleText(a.reader, fmt.Sprintf("Date [%s]", e.Date), a.out); date != "" {
		e.Date = date
	}
	if tm, _ := GetSimpleText(a.reader, fmt.Sprintf("Time [%s]", e.Time), a.out); tm != "" {
		e.Time = tm
	}
	if loc, _ := GetSimpleText(a.reader, fmt.Sprintf("Location [%s]", e.Location), a.out); loc != "" {
		e.Location = loc
	}

	updated, err := a.events.Update(ctx, e)
	if err != nil {
		fmt.Fprintf(a.out, "Update failed: %v\n", err)
		return
	}

	a.state.PutEvent(updated)
	fmt.Fprintln(a.out, "Event updated")
}

func (a *App) deleteEvent(ctx context.Context, eventID string) {
	if a.state.User() == nil {
		fmt.Fprintln(a.out, "Log in first")
		return
	}

	confirmed, _ := GetYesNo(a.reader, fmt.Sprintf("Delete event %s?", eventID), false, a.out)
	if !confirmed {
		return
	}

	if err := a.events.Delete(ctx, eventID); err != nil {
		fmt.Fprintf(a.out, "Delete failed: %v\n", err)
		return
	}

	a.state.RemoveEvent(eventID)
	fmt.Fprintln(a.out, "Event deleted")
}
