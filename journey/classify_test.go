package journey

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassifySuccess(t *testing.T) {
	body := []byte(`{"tokenId": "abc-123", "successUrl": "/console", "realm": "/alpha"}`)
	res := Classify(body, http.StatusOK)

	succ, ok := res.(*Success)
	if !ok {
		t.Fatalf("expected *Success, got %T", res)
	}
	if succ.Status() != StatusSuccess {
		t.Fatalf("status = %q", succ.Status())
	}
	if succ.SessionToken() != "abc-123" {
		t.Fatalf("session token = %q", succ.SessionToken())
	}
	if succ.SuccessURL() != "/console" {
		t.Fatalf("success url = %q", succ.SuccessURL())
	}
	if succ.Realm() != "/alpha" {
		t.Fatalf("realm = %q", succ.Realm())
	}
}

func TestClassifyContinuing(t *testing.T) {
	body := []byte(`{
		"authId": "eyJ0eXAi",
		"callbacks": [{
			"type": "NameCallback",
			"output": [{"name": "prompt", "value": "User Name"}],
			"input": [{"name": "IDToken1", "value": ""}]
		}]
	}`)
	res := Classify(body, http.StatusOK)

	step, ok := res.(*Step)
	if !ok {
		t.Fatalf("expected *Step, got %T", res)
	}
	if step.Status() != StatusContinuing {
		t.Fatalf("status = %q", step.Status())
	}
	if step.AuthID() != "eyJ0eXAi" {
		t.Fatalf("authId = %q", step.AuthID())
	}
	if len(step.Callbacks()) != 1 {
		t.Fatalf("callbacks = %d", len(step.Callbacks()))
	}
}

func TestClassifyFailure(t *testing.T) {
	body := []byte(`{
		"code": 401,
		"reason": "Unauthorized",
		"message": "Login failure",
		"detail": {"failureUrl": "/recover"}
	}`)
	res := Classify(body, http.StatusUnauthorized)

	fail, ok := res.(*Failure)
	if !ok {
		t.Fatalf("expected *Failure, got %T", res)
	}
	if fail.Status() != StatusFailure {
		t.Fatalf("status = %q", fail.Status())
	}
	if fail.Code() != 401 || fail.Reason() != "Unauthorized" {
		t.Fatalf("code/reason = %d/%q", fail.Code(), fail.Reason())
	}
	if fail.RecoveryURL() != "/recover" {
		t.Fatalf("recovery url = %q", fail.RecoveryURL())
	}
}

func TestClassifyNon2xxWithoutFailureShape(t *testing.T) {
	res := Classify([]byte(`<html>Bad Gateway</html>`), http.StatusBadGateway)

	er, ok := res.(*ErrorResult)
	if !ok {
		t.Fatalf("expected *ErrorResult, got %T", res)
	}
	if er.Status() != StatusError {
		t.Fatalf("status = %q", er.Status())
	}
	if er.StatusCode() != http.StatusBadGateway {
		t.Fatalf("status code = %d", er.StatusCode())
	}
}

func TestClassifyUnparseableBody(t *testing.T) {
	res := Classify([]byte(`not json at all`), http.StatusOK)
	if _, ok := res.(*ErrorResult); !ok {
		t.Fatalf("expected *ErrorResult, got %T", res)
	}
}

func TestClassifyZeroCallbacksIsProtocolViolation(t *testing.T) {
	body := []byte(`{"authId": "eyJ0eXAi", "callbacks": []}`)
	res := Classify(body, http.StatusOK)

	er, ok := res.(*ErrorResult)
	if !ok {
		t.Fatalf("expected *ErrorResult, got %T", res)
	}
	var pe *ProtocolError
	if !errors.As(er.Err(), &pe) {
		t.Fatalf("err = %v, want ProtocolError", er.Err())
	}
}
