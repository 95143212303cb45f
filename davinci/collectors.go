// Package davinci implements the flow-dialect client: each round is a
// single node carrying one or more typed collectors plus flow-control
// actions, reduced to the same terminal-state contract as the tree dialect.
package davinci

import (
	"fmt"
	"strings"
)

// Category groups collectors by interaction shape.
type Category string

const (
	CategorySingleValue Category = "SingleValueCollector"
	CategoryMultiValue  Category = "MultiValueCollector"
	CategoryAction      Category = "ActionCollector"
	CategoryDisplay     Category = "DisplayCollector"
)

// CollectorType is the wire-level tag identifying a collector variant.
type CollectorType string

const (
	TypeText                 CollectorType = "TEXT"
	TypePassword             CollectorType = "PASSWORD"
	TypeSingleSelect         CollectorType = "SINGLE_SELECT"
	TypeMultiSelect          CollectorType = "MULTI_SELECT"
	TypeSubmit               CollectorType = "SUBMIT_BUTTON"
	TypeFlowButton           CollectorType = "FLOW_BUTTON"
	TypeLabel                CollectorType = "LABEL"
	TypeSocialLogin          CollectorType = "SOCIAL_LOGIN_BUTTON"
	TypeDeviceRegistration   CollectorType = "DEVICE_REGISTRATION"
	TypeDeviceAuthentication CollectorType = "DEVICE_AUTHENTICATION"
	TypeProtect              CollectorType = "PROTECT"
)

// SelectOption is one selectable value offered by a choice-style collector.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RawOutput is the immutable server-declared half of a collector.
type RawOutput struct {
	Key     string   `json:"key"`
	Label   string   `json:"label,omitempty"`
	Content string   `json:"content,omitempty"`
	Options []SelectOption `json:"options,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// Raw is the wire shape of one collector.
type Raw struct {
	Category Category      `json:"category"`
	Type     CollectorType `json:"type"`
	ID       string        `json:"id,omitempty"`
	Output   RawOutput     `json:"output"`
	Input    any           `json:"input,omitempty"`
}

// Collector is the common surface over every variant.
type Collector interface {
	Category() Category
	CollectorType() CollectorType
	// Key identifies the datum this collector gathers.
	Key() string
	// Label returns the display label.
	Label() string
	// Payload returns the value to submit, or nil when nothing was set.
	Payload() any
}

type baseCollector struct {
	raw   Raw
	value any
}

func (b *baseCollector) Category() Category           { return b.raw.Category }
func (b *baseCollector) CollectorType() CollectorType { return b.raw.Type }
func (b *baseCollector) Key() string                  { return b.raw.Output.Key }
func (b *baseCollector) Label() string                { return b.raw.Output.Label }
func (b *baseCollector) Payload() any                 { return b.value }

// Text collects one free-form value.
type Text struct {
	baseCollector
}

func (c *Text) SetValue(value string) { c.value = value }

// Password collects one secret value.
type Password struct {
	baseCollector
}

func (c *Password) SetValue(value string) { c.value = value }

// SingleSelect collects one selection from the option list.
type SingleSelect struct {
	baseCollector
}

func (c *SingleSelect) Options() []SelectOption { return c.raw.Output.Options }

// SetIndex selects the option at index, validated at set-time.
func (c *SingleSelect) SetIndex(index int) error {
	opts := c.Options()
	if index < 0 || index >= len(opts) {
		return &ChoiceOutOfRangeError{Index: index, Count: len(opts)}
	}
	c.value = opts[index].Value
	return nil
}

// SetValue selects the option with the given value, validated at set-time.
func (c *SingleSelect) SetValue(value string) error {
	opts := c.Options()
	for _, o := range opts {
		if o.Value == value {
			c.value = value
			return nil
		}
	}
	return &InvalidChoiceError{Value: value, Choices: optionValues(opts)}
}

// MultiSelect collects any subset of the option list.
type MultiSelect struct {
	baseCollector
}

func (c *MultiSelect) Options() []SelectOption { return c.raw.Output.Options }

// SetValues selects the options with the given values. Every value is
// validated; the first invalid one fails the whole set and leaves the
// collector unchanged.
func (c *MultiSelect) SetValues(values []string) error {
	opts := c.Options()
	valid := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		valid[o.Value] = struct{}{}
	}
	for _, v := range values {
		if _, ok := valid[v]; !ok {
			return &InvalidChoiceError{Value: v, Choices: optionValues(opts)}
		}
	}
	c.value = append([]string(nil), values...)
	return nil
}

// Action is a flow-control collector: a submit or flow-branch button.
type Action struct {
	baseCollector
	selected bool
}

// Select marks this action as the one driving the submission.
func (c *Action) Select() {
	c.selected = true
	c.value = c.raw.Output.Key
}

// Selected reports whether Select was called.
func (c *Action) Selected() bool { return c.selected }

// Label display-only collector.
type Label struct {
	baseCollector
}

// Content returns the display text.
func (c *Label) Content() string { return c.raw.Output.Content }

// SocialLogin points at an external identity provider.
type SocialLogin struct {
	baseCollector
}

// AuthenticateURL returns the provider hand-off URL.
func (c *SocialLogin) AuthenticateURL() string { return c.raw.Output.URL }

// Device collects a device selection for registration or authentication
// ceremonies.
type Device struct {
	baseCollector
}

func (c *Device) Options() []SelectOption { return c.raw.Output.Options }

// SetDevice selects a device by value, validated at set-time.
func (c *Device) SetDevice(value string) error {
	opts := c.Options()
	for _, o := range opts {
		if o.Value == value {
			c.value = value
			return nil
		}
	}
	return &InvalidChoiceError{Value: value, Choices: optionValues(opts)}
}

// Protect collects risk-evaluation signals.
type Protect struct {
	baseCollector
}

// SetSignals submits the opaque signals blob produced by the caller's risk
// SDK handle.
func (c *Protect) SetSignals(signals string) { c.value = signals }

// Generic is the passthrough for collector types this SDK does not model.
type Generic struct {
	baseCollector
}

// RawCollector returns the untyped wire payload.
func (c *Generic) RawCollector() Raw { return c.raw }

// SetValue writes an arbitrary value into the input slot.
func (c *Generic) SetValue(value any) { c.value = value }

// NewCollector instantiates the handler for a raw collector payload. The
// mapping is total: unknown tags degrade to *Generic.
func NewCollector(raw Raw) Collector {
	switch raw.Type {
	case TypeText:
		return &Text{baseCollector{raw: raw}}
	case TypePassword:
		return &Password{baseCollector{raw: raw}}
	case TypeSingleSelect:
		return &SingleSelect{baseCollector{raw: raw}}
	case TypeMultiSelect:
		return &MultiSelect{baseCollector{raw: raw}}
	case TypeSubmit, TypeFlowButton:
		return &Action{baseCollector: baseCollector{raw: raw}}
	case TypeLabel:
		return &Label{baseCollector{raw: raw}}
	case TypeSocialLogin:
		return &SocialLogin{baseCollector{raw: raw}}
	case TypeDeviceRegistration, TypeDeviceAuthentication:
		return &Device{baseCollector{raw: raw}}
	case TypeProtect:
		return &Protect{baseCollector{raw: raw}}
	default:
		return &Generic{baseCollector{raw: raw}}
	}
}

// ChoiceOutOfRangeError indicates a selection index outside the valid
// bound, raised at set-time.
type ChoiceOutOfRangeError struct {
	Index int
	Count int
}

func (e *ChoiceOutOfRangeError) Error() string {
	return fmt.Sprintf("choice index %d out of range [0, %d)", e.Index, e.Count)
}

// InvalidChoiceError indicates a selection value that is not one of the
// server-declared options, raised at set-time.
type InvalidChoiceError struct {
	Value   string
	Choices []string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %q: valid choices are [%s]", e.Value, strings.Join(e.Choices, ", "))
}

func optionValues(opts []SelectOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}
