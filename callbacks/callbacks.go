// Package callbacks models the typed prompts a journey server sends in each
// step of the negotiation. Every callback pairs an immutable output bag
// (what the server declared) with a mutable input slot (what the client will
// send back). Instances are built by New from raw wire payloads and are
// discarded when the step is resubmitted.
package callbacks

import "encoding/json"

// Type is the wire-level tag identifying a callback variant.
type Type string

const (
	TypeBooleanAttributeInput   Type = "BooleanAttributeInputCallback"
	TypeChoice                  Type = "ChoiceCallback"
	TypeConfirmation            Type = "ConfirmationCallback"
	TypeDeviceProfile           Type = "DeviceProfileCallback"
	TypeHiddenValue             Type = "HiddenValueCallback"
	TypeKbaCreate               Type = "KbaCreateCallback"
	TypeMetadata                Type = "MetadataCallback"
	TypeName                    Type = "NameCallback"
	TypeNumberAttributeInput    Type = "NumberAttributeInputCallback"
	TypePassword                Type = "PasswordCallback"
	TypePingOneProtectEvaluate  Type = "PingOneProtectEvaluationCallback"
	TypePingOneProtectInit      Type = "PingOneProtectInitializeCallback"
	TypePollingWait             Type = "PollingWaitCallback"
	TypeReCaptcha               Type = "ReCaptchaCallback"
	TypeReCaptchaEnterprise     Type = "ReCaptchaEnterpriseCallback"
	TypeRedirect                Type = "RedirectCallback"
	TypeSelectIdP               Type = "SelectIdPCallback"
	TypeStringAttributeInput    Type = "StringAttributeInputCallback"
	TypeSuspendedTextOutput     Type = "SuspendedTextOutputCallback"
	TypeTermsAndConditions      Type = "TermsAndConditionsCallback"
	TypeTextInput               Type = "TextInputCallback"
	TypeTextOutput              Type = "TextOutputCallback"
	TypeValidatedCreatePassword Type = "ValidatedCreatePasswordCallback"
	TypeValidatedCreateUsername Type = "ValidatedCreateUsernameCallback"
	TypeWebAuthnAuthentication  Type = "WebAuthnAuthenticationCallback"
	TypeWebAuthnRegistration    Type = "WebAuthnRegistrationCallback"
)

// Entry is one name/value pair in a callback's output or input list.
type Entry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Raw is the wire shape of a single callback.
type Raw struct {
	ID     *int    `json:"_id,omitempty"`
	Type   Type    `json:"type"`
	Output []Entry `json:"output,omitempty"`
	Input  []Entry `json:"input,omitempty"`
}

// Callback is the common surface over every variant. Concrete types add
// typed accessors; callers that only need the generic surface can stay on
// this interface.
type Callback interface {
	// CallbackType returns the wire-level tag.
	CallbackType() Type

	// OutputValue returns the named output value, or nil if absent.
	// Reading output never has side effects.
	OutputValue(name string) any

	// SetInputValue writes the default (first) input slot.
	SetInputValue(value any) error

	// Payload returns the wire shape including any input mutations, ready
	// for resubmission.
	Payload() Raw
}

// base carries the shared output/input plumbing. The raw output list is
// never mutated after construction; input mutations land in a private copy.
type base struct {
	raw   Raw
	input []Entry
}

func newBase(raw Raw) base {
	return base{
		raw:   raw,
		input: append([]Entry(nil), raw.Input...),
	}
}

func (b *base) CallbackType() Type { return b.raw.Type }

func (b *base) OutputValue(name string) any {
	for _, e := range b.raw.Output {
		if e.Name == name {
			return e.Value
		}
	}
	return nil
}

// outputString returns the named output coerced to string, or "".
func (b *base) outputString(name string) string {
	s, _ := b.OutputValue(name).(string)
	return s
}

// outputStrings returns the named output coerced to a string slice.
func (b *base) outputStrings(name string) []string {
	raw, _ := b.OutputValue(name).([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// outputInt returns the named output coerced to int. JSON numbers decode as
// float64, so both forms are accepted.
func (b *base) outputInt(name string) int {
	switch v := b.OutputValue(name).(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// SetInputValue writes the default input slot.
func (b *base) SetInputValue(value any) error {
	if len(b.input) == 0 {
		return &InputNotFoundError{Type: b.raw.Type}
	}
	b.input[0].Value = value
	return nil
}

// setInputNamed writes the input slot with the given name suffix. Wire input
// names carry node-assigned prefixes ("IDToken2question"), so matching is on
// the trailing segment.
func (b *base) setInputNamed(suffix string, value any) error {
	for i := range b.input {
		if hasSuffix(b.input[i].Name, suffix) {
			b.input[i].Value = value
			return nil
		}
	}
	return &InputNotFoundError{Type: b.raw.Type, Name: suffix}
}

// InputValue returns the default input slot's current value, or nil.
func (b *base) InputValue() any {
	if len(b.input) == 0 {
		return nil
	}
	return b.input[0].Value
}

// Payload returns the wire shape with input mutations applied.
func (b *base) Payload() Raw {
	out := b.raw
	out.Input = append([]Entry(nil), b.input...)
	return out
}

func (b *base) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Payload())
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
