// Package middleware implements the outbound request interceptor chain.
// Every network call the SDK makes passes through the registered chain
// exactly once, tagged with the semantic action that provoked it, before it
// reaches the transport.
package middleware

import "net/http"

// ActionType labels the semantic intent behind an outbound request.
type ActionType string

const (
	ActionStart   ActionType = "START"
	ActionNext    ActionType = "NEXT"
	ActionFlow    ActionType = "FLOW"
	ActionSuccess ActionType = "SUCCESS"
	ActionError   ActionType = "ERROR"
	ActionFailure ActionType = "FAILURE"
	ActionResume  ActionType = "RESUME"
	// ActionTerminate tags the server-side session logout call.
	ActionTerminate ActionType = "TERMINATE"
)

// Action carries the semantic label for one outbound call plus an opaque
// payload describing it. Middleware receives a copy; mutating it has no
// effect on the pipeline or on later links.
type Action struct {
	Type    ActionType
	Payload map[string]any
}

// clone returns a structurally independent copy so a middleware cannot
// retain a reference that outlives its invocation.
func (a Action) clone() Action {
	dup := Action{Type: a.Type}
	if a.Payload != nil {
		dup.Payload = make(map[string]any, len(a.Payload))
		for k, v := range a.Payload {
			dup.Payload[k] = v
		}
	}
	return dup
}

// Decision is a middleware's verdict on the pending request.
type Decision int

const (
	// Continue passes the request to the next link in the chain.
	Continue Decision = iota
	// Halt stops the chain; links registered after the halting middleware
	// never run. The request still proceeds to the transport as mutated so
	// far. Halting is the supported way to pin a request's final shape.
	Halt
)

// Middleware inspects and mutates the pending request. The request is shared
// down the chain, so field-level mutation (headers, URL query) is visible to
// later links and to the transport. Reassigning the pointer inside a
// middleware has no effect; only mutation through it is honored.
type Middleware func(req *http.Request, action Action) Decision

// Apply runs req through the chain in registration order. Each middleware
// receives its own copy of action. A Halt return stops propagation; the
// request as mutated so far is the final request.
func Apply(req *http.Request, action Action, chain []Middleware) *http.Request {
	for _, mw := range chain {
		if mw == nil {
			continue
		}
		if mw(req, action.clone()) == Halt {
			break
		}
	}
	return req
}
