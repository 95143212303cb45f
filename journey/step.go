package journey

import (
	"encoding/json"
	"reflect"

	"github.com/journeykit/journey-go/callbacks"
)

// Step is one non-terminal round of the negotiation: an ordered set of
// callbacks awaiting input plus the continuation token that ties the round
// to its server-side state. A Step is replaced wholesale by the next server
// response; handles into a superseded Step must not be resubmitted.
type Step struct {
	raw rawStep
	cbs []callbacks.Callback
}

func newStep(raw rawStep) *Step {
	cbs := make([]callbacks.Callback, 0, len(raw.Callbacks))
	for _, r := range raw.Callbacks {
		cbs = append(cbs, callbacks.New(r))
	}
	return &Step{raw: raw, cbs: cbs}
}

func (s *Step) Status() Status { return StatusContinuing }

// AuthID returns the continuation token for this round.
func (s *Step) AuthID() string { return s.raw.AuthID }

// Header returns the server-declared page header, if any.
func (s *Step) Header() string { return s.raw.Header }

// Description returns the server-declared page description, if any.
func (s *Step) Description() string { return s.raw.Description }

// Stage returns the server-declared stage hint, if any.
func (s *Step) Stage() string { return s.raw.Stage }

// Callbacks returns every callback in server order.
func (s *Step) Callbacks() []callbacks.Callback { return s.cbs }

// CallbacksOfType returns the callbacks matching typ, in server order.
func (s *Step) CallbacksOfType(typ callbacks.Type) []callbacks.Callback {
	var out []callbacks.Callback
	for _, cb := range s.cbs {
		if cb.CallbackType() == typ {
			out = append(out, cb)
		}
	}
	return out
}

// CallbackOfType returns the single callback of the given type. It is
// strict: zero or multiple matches is a contract violation reported as a
// *CallbackCountError, not a soft miss.
func (s *Step) CallbackOfType(typ callbacks.Type) (callbacks.Callback, error) {
	matches := s.CallbacksOfType(typ)
	if len(matches) != 1 {
		return nil, &CallbackCountError{Type: string(typ), Found: len(matches)}
	}
	return matches[0], nil
}

// SetCallbackValue writes the default input slot of the single callback of
// the given type, with the same strictness as CallbackOfType.
func (s *Step) SetCallbackValue(typ callbacks.Type, value any) error {
	cb, err := s.CallbackOfType(typ)
	if err != nil {
		return err
	}
	return cb.SetInputValue(value)
}

// RedirectCallback returns the redirect instruction when this step is an
// external-IdP hop. The orchestrator routes such steps through Redirect
// rather than surfacing them to the renderer.
func (s *Step) RedirectCallback() (*callbacks.Redirect, bool) {
	for _, cb := range s.cbs {
		if r, ok := cb.(*callbacks.Redirect); ok {
			return r, true
		}
	}
	return nil, false
}

// submission returns the wire payload for resubmitting this step with its
// input mutations applied.
func (s *Step) submission() ([]byte, error) {
	sub := stepSubmission{
		AuthID:    s.raw.AuthID,
		Callbacks: make([]callbacks.Raw, 0, len(s.cbs)),
	}
	for _, cb := range s.cbs {
		sub.Callbacks = append(sub.Callbacks, cb.Payload())
	}
	return json.Marshal(sub)
}

// CallbackAs returns the single callback of concrete type T from the step.
// It carries the same cardinality contract as (*Step).CallbackOfType.
func CallbackAs[T callbacks.Callback](s *Step) (T, error) {
	var match T
	found := 0
	for _, cb := range s.cbs {
		if typed, ok := cb.(T); ok {
			match = typed
			found++
		}
	}
	if found != 1 {
		var zero T
		return zero, &CallbackCountError{Type: typeName[T](), Found: found}
	}
	return match, nil
}

func typeName[T callbacks.Callback]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
