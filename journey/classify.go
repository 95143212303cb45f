package journey

import (
	"encoding/json"
	"fmt"
)

// Classify maps one raw server response onto the five-way state model.
//
// Rules, in order: a transport status outside 2xx or an unparseable body is
// StatusError; a tokenId with no callbacks is StatusSuccess; an explicit
// failure code/reason is StatusFailure; at least one callback is
// StatusContinuing; a continuing-shaped payload with zero callbacks is a
// protocol violation surfaced as StatusError, never silently advanced.
func Classify(body []byte, httpStatus int) Result {
	if httpStatus < 200 || httpStatus > 299 {
		// Failure payloads ride on 4xx; prefer the structured failure when
		// the body carries one.
		var raw rawStep
		if err := json.Unmarshal(body, &raw); err == nil && (raw.Code != 0 || raw.Reason != "") {
			return &Failure{code: raw.Code, reason: raw.Reason, message: raw.Message, detail: raw.Detail}
		}
		return &ErrorResult{
			statusCode: httpStatus,
			err:        fmt.Errorf("unexpected status %d", httpStatus),
			body:       body,
		}
	}

	var raw rawStep
	if err := json.Unmarshal(body, &raw); err != nil {
		return &ErrorResult{
			statusCode: httpStatus,
			err:        &ProtocolError{Message: "malformed step payload", Cause: err},
			body:       body,
		}
	}

	switch {
	case raw.TokenID != "" && len(raw.Callbacks) == 0:
		return &Success{tokenID: raw.TokenID, successURL: raw.SuccessURL, realm: raw.Realm}
	case raw.Code != 0 || raw.Reason != "":
		return &Failure{code: raw.Code, reason: raw.Reason, message: raw.Message, detail: raw.Detail}
	case len(raw.Callbacks) > 0:
		return newStep(raw)
	default:
		return &ErrorResult{
			statusCode: httpStatus,
			err:        &ProtocolError{Message: "continuing step carries zero callbacks"},
			body:       body,
		}
	}
}
