package journey

import "fmt"

// ProtocolError indicates a payload whose shape violates the negotiation
// contract: unparseable JSON, an unexpected media type, or a continuing step
// carrying zero callbacks.
type ProtocolError struct {
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// CallbackCountError indicates a strict single-callback lookup that matched
// zero or several callbacks. Callers uncertain about cardinality should use
// CallbacksOfType first.
type CallbackCountError struct {
	Type  string
	Found int
}

func (e *CallbackCountError) Error() string {
	return fmt.Sprintf("expected 1 callback of type %s, found %d", e.Type, e.Found)
}
