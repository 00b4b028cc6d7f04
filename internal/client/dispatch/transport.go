// Package dispatch implements the workflow-dispatch bridge: a typed payload
// is delivered to the backend automation either directly through GitHub's
// repository_dispatch API or through the CSRF-protected proxy. A local
// variant short-circuits both for development.
//
// The transport is selected once at startup from configuration; call sites
// never branch on deployment context themselves.
package dispatch

import "context"

// Result reports a successful dispatch. Local is set when the development
// bypass answered without touching the network.
type Result struct {
	Success bool `json:"success"`
	Local   bool `json:"local,omitempty"`
}

// Transport delivers a repository_dispatch event.
type Transport interface {
	Dispatch(ctx context.Context, eventType string, payload any) (*Result, error)
}
