// Package journey drives the multi-step, server-directed authentication
// negotiation against a tree-dialect server: submit current state, receive
// next state, repeat until a terminal outcome.
package journey

import "encoding/json"

// Status classifies one server response.
type Status string

const (
	// StatusStart means no server contact has happened yet.
	StatusStart Status = "start"
	// StatusContinuing means the server wants more input.
	StatusContinuing Status = "continuing"
	// StatusSuccess is terminal: the negotiation produced a session token.
	StatusSuccess Status = "success"
	// StatusFailure is terminal: the server rejected the negotiation for a
	// business reason (bad credentials, policy).
	StatusFailure Status = "failure"
	// StatusError is terminal: the exchange broke at the transport or
	// protocol level before any business outcome.
	StatusError Status = "error"
)

// Result is one classified server response. Concrete types: *Step
// (continuing), *Success, *Failure, *ErrorResult. Once a terminal result is
// returned, no further Next is valid; a fresh Start is required.
type Result interface {
	Status() Status
}

// Success is the terminal success outcome.
type Success struct {
	tokenID    string
	successURL string
	realm      string
}

func (s *Success) Status() Status { return StatusSuccess }

// SessionToken returns the opaque session/continuation token.
func (s *Success) SessionToken() string { return s.tokenID }

// SuccessURL returns where the server suggests navigating next.
func (s *Success) SuccessURL() string { return s.successURL }

// Realm returns the realm the session was issued in, if declared.
func (s *Success) Realm() string { return s.realm }

// Failure is the terminal business-rejection outcome.
type Failure struct {
	code    int
	reason  string
	message string
	detail  json.RawMessage
}

func (f *Failure) Status() Status { return StatusFailure }

// Code returns the server's numeric failure code.
func (f *Failure) Code() int { return f.code }

// Reason returns the machine-readable rejection reason.
func (f *Failure) Reason() string { return f.reason }

// Message returns the human-readable rejection message.
func (f *Failure) Message() string { return f.message }

// Detail unmarshals the structured failure detail into ref.
func (f *Failure) Detail(ref any) error {
	if f.detail == nil {
		return nil
	}
	return json.Unmarshal(f.detail, ref)
}

// RecoveryURL returns the failure-detail failureUrl, if the server attached
// one, so callers can offer the user a way forward.
func (f *Failure) RecoveryURL() string {
	if f.detail == nil {
		return ""
	}
	var d struct {
		FailureURL string `json:"failureUrl"`
	}
	if err := json.Unmarshal(f.detail, &d); err != nil {
		return ""
	}
	return d.FailureURL
}

// ErrorResult is the terminal transport/protocol outcome, distinct from a
// business Failure.
type ErrorResult struct {
	statusCode int
	err        error
	body       []byte
}

// NewErrorResult builds a terminal transport/protocol outcome. It exists so
// other dialect front-ends can classify onto the shared state model.
func NewErrorResult(statusCode int, err error, body []byte) *ErrorResult {
	return &ErrorResult{statusCode: statusCode, err: err, body: body}
}

func (e *ErrorResult) Status() Status { return StatusError }

// StatusCode returns the HTTP status of the failing response, or 0 when the
// call never produced one.
func (e *ErrorResult) StatusCode() int { return e.statusCode }

// Err returns the underlying error.
func (e *ErrorResult) Err() error { return e.err }

// Body returns the raw response body, when one was received.
func (e *ErrorResult) Body() []byte { return e.body }
