package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newReq(t *testing.T) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "https://am.example.com/authenticate", nil)
}

func TestApplyRunsInRegistrationOrder(t *testing.T) {
	req := newReq(t)
	var order []string
	chain := []Middleware{
		func(req *http.Request, action Action) Decision {
			order = append(order, "first")
			req.Header.Set("X-Trace", "first")
			return Continue
		},
		func(req *http.Request, action Action) Decision {
			order = append(order, "second")
			// Later links observe earlier mutations.
			if req.Header.Get("X-Trace") != "first" {
				t.Fatalf("second link did not see first link's header")
			}
			req.Header.Set("X-Trace", "second")
			return Continue
		},
	}

	out := Apply(req, Action{Type: ActionStart}, chain)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
	if out.Header.Get("X-Trace") != "second" {
		t.Fatalf("final header = %q", out.Header.Get("X-Trace"))
	}
}

func TestApplyHaltStopsChain(t *testing.T) {
	req := newReq(t)
	var ran []string
	chain := []Middleware{
		func(req *http.Request, action Action) Decision {
			ran = append(ran, "a")
			req.Header.Set("X-Pinned", "yes")
			return Halt
		},
		func(req *http.Request, action Action) Decision {
			ran = append(ran, "b")
			return Continue
		},
	}

	out := Apply(req, Action{Type: ActionNext}, chain)
	if len(ran) != 1 || ran[0] != "a" {
		t.Fatalf("ran = %v, want only the halting link", ran)
	}
	// The request still goes out as mutated so far.
	if out.Header.Get("X-Pinned") != "yes" {
		t.Fatalf("halting link's mutation lost")
	}
}

func TestApplySkipsNilLinks(t *testing.T) {
	req := newReq(t)
	ran := false
	chain := []Middleware{
		nil,
		func(req *http.Request, action Action) Decision {
			ran = true
			return Continue
		},
	}
	Apply(req, Action{Type: ActionStart}, chain)
	if !ran {
		t.Fatalf("link after nil never ran")
	}
}

func TestActionPayloadIsolatedPerLink(t *testing.T) {
	req := newReq(t)
	action := Action{Type: ActionStart, Payload: map[string]any{"tree": "Login"}}

	chain := []Middleware{
		func(req *http.Request, a Action) Decision {
			a.Payload["tree"] = "Tampered"
			a.Type = ActionError
			return Continue
		},
		func(req *http.Request, a Action) Decision {
			if a.Type != ActionStart {
				t.Fatalf("action type leaked between links: %q", a.Type)
			}
			if a.Payload["tree"] != "Login" {
				t.Fatalf("payload mutation leaked between links: %v", a.Payload)
			}
			return Continue
		},
	}
	Apply(req, action, chain)

	if action.Payload["tree"] != "Login" {
		t.Fatalf("caller's action mutated: %v", action.Payload)
	}
}

func TestApplyEmptyChain(t *testing.T) {
	req := newReq(t)
	if out := Apply(req, Action{Type: ActionStart}, nil); out != req {
		t.Fatalf("empty chain should return the request unchanged")
	}
}
