package callbacks

import "strconv"

// Name collects a username or similar free-text identifier.
type Name struct {
	base
}

// Prompt returns the server-declared prompt text.
func (c *Name) Prompt() string { return c.outputString("prompt") }

// SetName writes the collected value into the input slot.
func (c *Name) SetName(name string) error { return c.SetInputValue(name) }

// Password collects a secret value. The input slot is write-only from the
// renderer's perspective; nothing echoes it back.
type Password struct {
	base
}

// Prompt returns the server-declared prompt text.
func (c *Password) Prompt() string { return c.outputString("prompt") }

// SetPassword writes the collected secret into the input slot.
func (c *Password) SetPassword(password string) error { return c.SetInputValue(password) }

// TextInput collects one free-form text value.
type TextInput struct {
	base
}

func (c *TextInput) Prompt() string { return c.outputString("prompt") }

// DefaultText returns the server-suggested initial value, if any.
func (c *TextInput) DefaultText() string { return c.outputString("defaultText") }

func (c *TextInput) SetText(text string) error { return c.SetInputValue(text) }

// TextOutput carries a display-only message; it has no input slot.
type TextOutput struct {
	base
}

// Message returns the text to display.
func (c *TextOutput) Message() string { return c.outputString("message") }

// MessageType returns the server-declared severity ("0" information,
// "1" warning, "2" error, "4" script).
func (c *TextOutput) MessageType() string {
	switch v := c.OutputValue("messageType").(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	default:
		return ""
	}
}

// SuspendedTextOutput is a TextOutput shown while the journey is suspended
// server-side (e.g. awaiting an emailed magic link).
type SuspendedTextOutput struct {
	TextOutput
}
