package dispatch

import (
	"context"

	"github.com/eventcall-app/eventcall/internal/logging"
)

// Local is the development bypass: dispatches are acknowledged without any
// network call. It is selected when the client runs against a recognized
// local host and the force-backend flag is off. The bypass is deliberate
// and visible: results carry Local=true and every skip is logged.
type Local struct {
	logger logging.Logger
}

func NewLocal(logger logging.Logger) *Local {
	return &Local{logger: logger.With("transport", "local")}
}

func (l *Local) Dispatch(ctx context.Context, eventType string, payload any) (*Result, error) {
	l.logger.Info(ctx, "local mode, dispatch skipped", "event_type", eventType)
	return &Result{Success: true, Local: true}, nil
}

// LocalHostnames are the hosts on which the Local transport is selected
// unless the configuration forces the real backend.
var LocalHostnames = []string{"localhost", "127.0.0.1", "::1"}

// IsLocalHost reports whether host is one of the recognized development
// hostnames.
func IsLocalHost(host string) bool {
	for _, h := range LocalHostnames {
		if host == h {
			return true
		}
	}
	return false
}
