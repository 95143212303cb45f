package callbacks

import (
	"encoding/json"
	"strconv"
)

// HiddenValue carries an opaque value round-trip between server and client
// without any user interaction.
type HiddenValue struct {
	base
}

// ID returns the server-assigned identifier for this hidden slot.
func (c *HiddenValue) ID() string { return c.outputString("id") }

// Value returns the server-declared initial value.
func (c *HiddenValue) Value() string { return c.outputString("value") }

// SetValue writes the value the server will receive back.
func (c *HiddenValue) SetValue(value string) error { return c.SetInputValue(value) }

// Metadata exposes a free-form JSON object attached to the step.
type Metadata struct {
	base
}

// Data unmarshals the metadata object into ref.
func (c *Metadata) Data(ref any) error {
	raw, err := json.Marshal(c.OutputValue("data"))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, ref)
}

// PollingWait instructs the client to wait before resubmitting, typically
// while the server polls an out-of-band factor (push notification, email).
type PollingWait struct {
	base
}

// Message returns the text to display while waiting.
func (c *PollingWait) Message() string { return c.outputString("message") }

// WaitTimeMillis returns how long the client should wait before the next
// submission.
func (c *PollingWait) WaitTimeMillis() int {
	switch v := c.OutputValue("waitTime").(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Redirect instructs the client to hand control to an external identity
// provider. The orchestrator recognizes redirect-only steps and routes them
// through the external-IdP hop instead of surfacing them to the renderer.
type Redirect struct {
	base
}

// RedirectURL returns the target the client must navigate to.
func (c *Redirect) RedirectURL() string { return c.outputString("redirectUrl") }

// TrackingCookie reports whether the server set a tracking cookie that must
// be carried across the redirect boundary.
func (c *Redirect) TrackingCookie() bool {
	v, _ := c.OutputValue("trackingCookie").(bool)
	return v
}

// TermsAndConditions presents terms the user must accept to continue.
type TermsAndConditions struct {
	base
}

// Terms returns the full terms text.
func (c *TermsAndConditions) Terms() string { return c.outputString("terms") }

// Version returns the terms version identifier.
func (c *TermsAndConditions) Version() string { return c.outputString("version") }

// CreateDate returns the server-declared creation timestamp string.
func (c *TermsAndConditions) CreateDate() string { return c.outputString("createDate") }

// SetAccepted records the user's acceptance decision.
func (c *TermsAndConditions) SetAccepted(accepted bool) error { return c.SetInputValue(accepted) }

// KbaCreate collects a knowledge-based-authentication question and answer
// pair. It is the one variant with two meaningful input slots.
type KbaCreate struct {
	base
}

// Prompt returns the server-declared prompt text.
func (c *KbaCreate) Prompt() string { return c.outputString("prompt") }

// PredefinedQuestions returns the questions the user may pick from; a custom
// question is also allowed.
func (c *KbaCreate) PredefinedQuestions() []string { return c.outputStrings("predefinedQuestions") }

// SetQuestion writes the chosen (or custom) question.
func (c *KbaCreate) SetQuestion(question string) error {
	return c.setInputNamed("question", question)
}

// SetAnswer writes the user's answer.
func (c *KbaCreate) SetAnswer(answer string) error {
	return c.setInputNamed("answer", answer)
}
