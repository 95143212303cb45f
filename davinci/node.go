package davinci

import (
	"encoding/json"
	"fmt"

	"github.com/journeykit/journey-go/journey"
)

// rawNode is the flow-dialect wire envelope.
type rawNode struct {
	Status     string `json:"status"`
	ID         string `json:"id,omitempty"`
	EventName  string `json:"eventName,omitempty"`
	Collectors []Raw  `json:"collectors,omitempty"`

	AuthorizeResponse *struct {
		Code  string `json:"code"`
		State string `json:"state,omitempty"`
	} `json:"authorizeResponse,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`

	Links map[string]struct {
		Href string `json:"href"`
	} `json:"_links,omitempty"`
}

// CollectorCountError indicates a strict single-collector lookup that
// matched zero or several collectors.
type CollectorCountError struct {
	Type  CollectorType
	Found int
}

func (e *CollectorCountError) Error() string {
	return fmt.Sprintf("expected 1 collector of type %s, found %d", e.Type, e.Found)
}

// Node is one continuing round of a flow: the collectors awaiting input.
type Node struct {
	raw        rawNode
	collectors []Collector
}

func newNode(raw rawNode) *Node {
	cs := make([]Collector, 0, len(raw.Collectors))
	for _, r := range raw.Collectors {
		cs = append(cs, NewCollector(r))
	}
	return &Node{raw: raw, collectors: cs}
}

func (n *Node) Status() journey.Status { return journey.StatusContinuing }

// ID returns the node identifier.
func (n *Node) ID() string { return n.raw.ID }

// Collectors returns every collector in server order.
func (n *Node) Collectors() []Collector { return n.collectors }

// CollectorsOfType returns the collectors matching typ, in server order.
func (n *Node) CollectorsOfType(typ CollectorType) []Collector {
	var out []Collector
	for _, c := range n.collectors {
		if c.CollectorType() == typ {
			out = append(out, c)
		}
	}
	return out
}

// CollectorOfType returns the single collector of the given type. Zero or
// multiple matches is a contract violation reported as a
// *CollectorCountError.
func (n *Node) CollectorOfType(typ CollectorType) (Collector, error) {
	matches := n.CollectorsOfType(typ)
	if len(matches) != 1 {
		return nil, &CollectorCountError{Type: typ, Found: len(matches)}
	}
	return matches[0], nil
}

// nextHref returns the submission target declared by the node, or "".
func (n *Node) nextHref() string {
	if l, ok := n.raw.Links["next"]; ok {
		return l.Href
	}
	return ""
}

// submission builds the wire payload for resubmitting this node: the node
// id, the driving action's event name, and every collector's key/value.
func (n *Node) submission() ([]byte, error) {
	data := map[string]any{}
	var actionKey string
	for _, c := range n.collectors {
		if a, ok := c.(*Action); ok {
			if a.Selected() {
				actionKey = a.Key()
			}
			continue
		}
		if v := c.Payload(); v != nil {
			data[c.Key()] = v
		}
	}
	payload := map[string]any{
		"id":         n.raw.ID,
		"eventName":  n.raw.EventName,
		"actionKey":  actionKey,
		"parameters": map[string]any{"data": data},
	}
	return json.Marshal(payload)
}

// SuccessNode is the terminal success outcome of a flow. It carries the
// authorization continuation the caller feeds into the token exchange.
type SuccessNode struct {
	code         string
	state        string
	sessionToken string
}

func (s *SuccessNode) Status() journey.Status { return journey.StatusSuccess }

// AuthorizeCode returns the authorization code issued at flow completion.
func (s *SuccessNode) AuthorizeCode() string { return s.code }

// AuthorizeState returns the state echoed with the code.
func (s *SuccessNode) AuthorizeState() string { return s.state }

// SessionToken returns the opaque session token, when the server issued one
// directly.
func (s *SuccessNode) SessionToken() string { return s.sessionToken }

// FailureNode is the terminal business-rejection outcome of a flow.
type FailureNode struct {
	code    string
	message string
}

func (f *FailureNode) Status() journey.Status { return journey.StatusFailure }

func (f *FailureNode) Code() string    { return f.code }
func (f *FailureNode) Message() string { return f.message }

// Classify maps one raw flow response onto the shared state model. The
// returned value is one of *Node, *SuccessNode, *FailureNode, or
// *journey.ErrorResult.
func Classify(body []byte, httpStatus int) journey.Result {
	if httpStatus < 200 || httpStatus > 299 {
		var raw rawNode
		if err := json.Unmarshal(body, &raw); err == nil && raw.Status == "failure" && raw.Error != nil {
			return &FailureNode{code: raw.Error.Code, message: raw.Error.Message}
		}
		return journey.NewErrorResult(httpStatus, fmt.Errorf("unexpected status %d", httpStatus), body)
	}

	var raw rawNode
	if err := json.Unmarshal(body, &raw); err != nil {
		return journey.NewErrorResult(httpStatus, &journey.ProtocolError{Message: "malformed node payload", Cause: err}, body)
	}

	switch raw.Status {
	case "success":
		s := &SuccessNode{sessionToken: raw.SessionToken}
		if raw.AuthorizeResponse != nil {
			s.code = raw.AuthorizeResponse.Code
			s.state = raw.AuthorizeResponse.State
		}
		return s
	case "failure":
		f := &FailureNode{}
		if raw.Error != nil {
			f.code = raw.Error.Code
			f.message = raw.Error.Message
		}
		return f
	case "error":
		msg := "server reported an error node"
		if raw.Error != nil && raw.Error.Message != "" {
			msg = raw.Error.Message
		}
		return journey.NewErrorResult(httpStatus, &journey.ProtocolError{Message: msg}, body)
	default:
		// A continuing node with zero collectors is a protocol violation,
		// never a silent advance.
		if len(raw.Collectors) == 0 {
			return journey.NewErrorResult(httpStatus, &journey.ProtocolError{Message: "continuing node carries zero collectors"}, body)
		}
		return newNode(raw)
	}
}
