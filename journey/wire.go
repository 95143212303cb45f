package journey

import (
	"encoding/json"

	"github.com/journeykit/journey-go/callbacks"
)

// rawStep is the tree-dialect wire envelope. One shape covers all three
// server outcomes; classification decides which fields are meaningful.
type rawStep struct {
	AuthID      string          `json:"authId,omitempty"`
	Callbacks   []callbacks.Raw `json:"callbacks,omitempty"`
	Header      string          `json:"header,omitempty"`
	Description string          `json:"description,omitempty"`
	Stage       string          `json:"stage,omitempty"`

	// Success shape.
	TokenID    string `json:"tokenId,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
	Realm      string `json:"realm,omitempty"`

	// Failure shape.
	Code    int             `json:"code,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Message string          `json:"message,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

// stepSubmission is what goes back to the server on Next: the continuation
// token plus every callback with its mutated inputs.
type stepSubmission struct {
	AuthID    string          `json:"authId"`
	Callbacks []callbacks.Raw `json:"callbacks"`
}
