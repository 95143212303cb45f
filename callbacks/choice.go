package callbacks

// Choice collects a single selection from a server-declared option list.
type Choice struct {
	base
}

// Prompt returns the server-declared prompt text.
func (c *Choice) Prompt() string { return c.outputString("prompt") }

// Choices returns the option list in server order.
func (c *Choice) Choices() []string { return c.outputStrings("choices") }

// DefaultChoice returns the index the server pre-selected.
func (c *Choice) DefaultChoice() int { return c.outputInt("defaultChoice") }

// SetChoiceIndex selects the option at index. The bound is checked here, at
// set-time, so the caller gets immediate feedback rather than a rejection on
// resubmission.
func (c *Choice) SetChoiceIndex(index int) error {
	if n := len(c.Choices()); index < 0 || index >= n {
		return &ChoiceOutOfRangeError{Index: index, Count: n}
	}
	return c.SetInputValue(index)
}

// SetChoiceValue selects the option whose text equals value.
func (c *Choice) SetChoiceValue(value string) error {
	choices := c.Choices()
	for i, ch := range choices {
		if ch == value {
			return c.SetInputValue(i)
		}
	}
	return &InvalidChoiceError{Value: value, Choices: choices}
}

// Confirmation collects a button press from a fixed option list
// (typically yes/no or retry/cancel).
type Confirmation struct {
	base
}

// Prompt returns the server-declared prompt text, which may be empty.
func (c *Confirmation) Prompt() string { return c.outputString("prompt") }

// Options returns the button labels in server order.
func (c *Confirmation) Options() []string { return c.outputStrings("options") }

// DefaultOption returns the index the server pre-selected.
func (c *Confirmation) DefaultOption() int { return c.outputInt("defaultOption") }

// SetOptionIndex selects the button at index, validated at set-time.
func (c *Confirmation) SetOptionIndex(index int) error {
	if n := len(c.Options()); index < 0 || index >= n {
		return &ChoiceOutOfRangeError{Index: index, Count: n}
	}
	return c.SetInputValue(index)
}

// SetOptionValue selects the button whose label equals value.
func (c *Confirmation) SetOptionValue(value string) error {
	options := c.Options()
	for i, opt := range options {
		if opt == value {
			return c.SetInputValue(i)
		}
	}
	return &InvalidChoiceError{Value: value, Choices: options}
}
