package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if u := a.state.User(); u != nil {
		return fmt.Sprintf("(%s)", u.Username)
	}
	return ""
}

// Root is the interactive loop. It exits on scanner EOF or when the user
// types "exit" or "quit".
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to EventCall CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "eventcall %s> ", a.getStatus())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(a.out, "Available commands: events, show <id>, create, edit <id>, delete <id>, rsvp <id>, rsvps <id>, profile, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, events, show <id>, rsvp <id>, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "logout":
			a.Logout(ctx)
		case "profile":
			a.Profile(ctx)

		case "events", "list":
			a.listEvents(ctx)
		case "show":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: show <event-id>")
				continue
			}
			a.showEvent(ctx, args[0])
		case "create":
			a.createEvent(ctx)
		case "edit":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: edit <event-id>")
				continue
			}
			a.editEvent(ctx, args[0])
		case "delete":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: delete <event-id>")
				continue
			}
			a.deleteEvent(ctx, args[0])

		case "rsvp":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: rsvp <event-id>")
				continue
			}
			a.submitRSVP(ctx, args[0])
		case "rsvps":
			if len(args) == 0 {
				fmt.Fprintln(a.out, "Usage: rsvps <event-id>")
				continue
			}
			a.listRSVPs(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return

		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
