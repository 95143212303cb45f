package davinci

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"testing"

	"github.com/journeykit/journey-go/journey"
	"github.com/journeykit/journey-go/journeytest"
	"github.com/journeykit/journey-go/middleware"
)

func newTestClient(t *testing.T, srv *journeytest.Server, opts ...Option) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	hc := srv.Client()
	hc.Jar = jar
	opts = append([]Option{WithHTTPClient(hc)}, opts...)
	client, err := New(Config{BaseURL: srv.URL(), FlowID: "f1"}, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// flowFormNode has no _links entry, so Next falls back to the configured
// flow URL.
const flowFormNode = `{
	"status": "continue",
	"id": "node-1",
	"eventName": "continue",
	"collectors": [
		{
			"category": "SingleValueCollector",
			"type": "TEXT",
			"output": {"key": "username", "label": "Username"}
		},
		{
			"category": "SingleValueCollector",
			"type": "PASSWORD",
			"output": {"key": "password", "label": "Password"}
		},
		{
			"category": "ActionCollector",
			"type": "SUBMIT_BUTTON",
			"output": {"key": "submit", "label": "Sign On"}
		}
	]
}`

func TestFlowStartThroughSuccess(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{FlowNodes: []string{
		flowFormNode,
		`{"status": "success", "authorizeResponse": {"code": "az-1", "state": "st-1"}}`,
	}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	var actions []string
	client := newTestClient(t, srv, WithMiddleware(func(req *http.Request, action middleware.Action) middleware.Decision {
		actions = append(actions, string(action.Type))
		return middleware.Continue
	}))
	ctx := context.Background()

	res, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	node, ok := res.(*Node)
	if !ok {
		t.Fatalf("Start = %T (%v), want *Node", res, res)
	}

	node.CollectorsOfType(TypeText)[0].(*Text).SetValue("alice")
	node.CollectorsOfType(TypePassword)[0].(*Password).SetValue("s3cret")
	node.CollectorsOfType(TypeSubmit)[0].(*Action).Select()

	res, err = client.Next(ctx, node)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	succ, ok := res.(*SuccessNode)
	if !ok {
		t.Fatalf("Next = %T (%v), want *SuccessNode", res, res)
	}
	if succ.AuthorizeCode() != "az-1" {
		t.Fatalf("code = %q", succ.AuthorizeCode())
	}
	if succ.Status() != journey.StatusSuccess {
		t.Fatalf("status = %q", succ.Status())
	}

	if len(actions) != 2 || actions[0] != "START" || actions[1] != "NEXT" {
		t.Fatalf("middleware saw %v, want [START NEXT]", actions)
	}
}

func TestFlowButtonTagsFlowAction(t *testing.T) {
	nodeWithFlowButton := `{
		"status": "continue",
		"id": "node-1",
		"collectors": [
			{
				"category": "SingleValueCollector",
				"type": "TEXT",
				"output": {"key": "username", "label": "Username"}
			},
			{
				"category": "ActionCollector",
				"type": "FLOW_BUTTON",
				"output": {"key": "forgot-password", "label": "Forgot password"}
			}
		]
	}`
	srv, err := journeytest.New(journeytest.Config{FlowNodes: []string{
		nodeWithFlowButton,
		flowFormNode,
	}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	var actions []string
	client := newTestClient(t, srv, WithMiddleware(func(req *http.Request, action middleware.Action) middleware.Decision {
		actions = append(actions, string(action.Type))
		return middleware.Continue
	}))
	ctx := context.Background()

	res, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	node := res.(*Node)
	node.CollectorsOfType(TypeFlowButton)[0].(*Action).Select()

	if _, err := client.Next(ctx, node); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(actions) != 2 || actions[1] != "FLOW" {
		t.Fatalf("middleware saw %v, want branch tagged FLOW", actions)
	}
}

func TestFlowFailure(t *testing.T) {
	srv, err := journeytest.New(journeytest.Config{FlowNodes: []string{
		`{"status": "failure", "error": {"code": "invalid_credentials", "message": "nope"}}`,
	}})
	if err != nil {
		t.Fatalf("mock server: %v", err)
	}
	defer srv.Close()

	client := newTestClient(t, srv)
	res, err := client.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fail, ok := res.(*FailureNode)
	if !ok {
		t.Fatalf("Start = %T (%v), want *FailureNode", res, res)
	}
	if fail.Code() != "invalid_credentials" {
		t.Fatalf("code = %q", fail.Code())
	}
}
