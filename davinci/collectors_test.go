package davinci

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustCollector(t *testing.T, payload string) Collector {
	t.Helper()
	var raw Raw
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal raw collector: %v", err)
	}
	return NewCollector(raw)
}

func TestSingleSelectValidation(t *testing.T) {
	c := mustCollector(t, `{
		"category": "SingleValueCollector",
		"type": "SINGLE_SELECT",
		"output": {
			"key": "dropdown",
			"label": "Pick one",
			"options": [
				{"label": "Red", "value": "red"},
				{"label": "Green", "value": "green"}
			]
		}
	}`)

	sel, ok := c.(*SingleSelect)
	if !ok {
		t.Fatalf("expected *SingleSelect, got %T", c)
	}
	if err := sel.SetIndex(1); err != nil {
		t.Fatalf("SetIndex(1): %v", err)
	}
	if sel.Payload() != "green" {
		t.Fatalf("payload = %v", sel.Payload())
	}

	var oob *ChoiceOutOfRangeError
	if err := sel.SetIndex(2); !errors.As(err, &oob) {
		t.Fatalf("SetIndex(2) = %v, want ChoiceOutOfRangeError", err)
	}
	var invalid *InvalidChoiceError
	if err := sel.SetValue("blue"); !errors.As(err, &invalid) {
		t.Fatalf("SetValue(blue) = %v, want InvalidChoiceError", err)
	}
	// Failed sets leave the prior selection intact.
	if sel.Payload() != "green" {
		t.Fatalf("payload after failed sets = %v", sel.Payload())
	}
}

func TestMultiSelectAllOrNothing(t *testing.T) {
	c := mustCollector(t, `{
		"category": "MultiValueCollector",
		"type": "MULTI_SELECT",
		"output": {
			"key": "toppings",
			"options": [
				{"label": "A", "value": "a"},
				{"label": "B", "value": "b"},
				{"label": "C", "value": "c"}
			]
		}
	}`)

	ms := c.(*MultiSelect)
	if err := ms.SetValues([]string{"a", "c"}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}

	var invalid *InvalidChoiceError
	if err := ms.SetValues([]string{"a", "zzz"}); !errors.As(err, &invalid) {
		t.Fatalf("SetValues with bad value = %v", err)
	}
	got, ok := ms.Payload().([]string)
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("payload after failed set = %v, want prior selection", ms.Payload())
	}
}

func TestActionSelect(t *testing.T) {
	c := mustCollector(t, `{
		"category": "ActionCollector",
		"type": "FLOW_BUTTON",
		"output": {"key": "forgot-password", "label": "Forgot password"}
	}`)

	a := c.(*Action)
	if a.Selected() {
		t.Fatalf("action selected before Select")
	}
	a.Select()
	if !a.Selected() {
		t.Fatalf("action not selected after Select")
	}
}

func TestDeviceValidation(t *testing.T) {
	c := mustCollector(t, `{
		"category": "SingleValueCollector",
		"type": "DEVICE_AUTHENTICATION",
		"output": {
			"key": "device",
			"options": [{"label": "Phone", "value": "dev-1"}]
		}
	}`)

	d := c.(*Device)
	if err := d.SetDevice("dev-1"); err != nil {
		t.Fatalf("SetDevice: %v", err)
	}
	var invalid *InvalidChoiceError
	if err := d.SetDevice("dev-404"); !errors.As(err, &invalid) {
		t.Fatalf("SetDevice(dev-404) = %v", err)
	}
}

func TestUnknownCollectorPassthrough(t *testing.T) {
	c := mustCollector(t, `{
		"category": "SingleValueCollector",
		"type": "HOLOGRAM_SCAN",
		"output": {"key": "hologram"}
	}`)

	g, ok := c.(*Generic)
	if !ok {
		t.Fatalf("expected *Generic for unknown type, got %T", c)
	}
	if g.CollectorType() != CollectorType("HOLOGRAM_SCAN") {
		t.Fatalf("type = %q", g.CollectorType())
	}
	g.SetValue(map[string]any{"scan": "data"})
	if g.Payload() == nil {
		t.Fatalf("payload lost")
	}
	if g.RawCollector().Output.Key != "hologram" {
		t.Fatalf("raw payload not preserved")
	}
}

func TestLabelAndSocialLogin(t *testing.T) {
	l := mustCollector(t, `{
		"category": "DisplayCollector",
		"type": "LABEL",
		"output": {"key": "info", "content": "Check your email"}
	}`).(*Label)
	if l.Content() != "Check your email" {
		t.Fatalf("content = %q", l.Content())
	}

	s := mustCollector(t, `{
		"category": "ActionCollector",
		"type": "SOCIAL_LOGIN_BUTTON",
		"output": {"key": "google", "label": "Google", "url": "https://idp.example.com/g"}
	}`).(*SocialLogin)
	if s.AuthenticateURL() != "https://idp.example.com/g" {
		t.Fatalf("url = %q", s.AuthenticateURL())
	}
}
