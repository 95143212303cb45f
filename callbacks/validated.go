package callbacks

// ValidatedCreateUsername collects a new username subject to server-side
// validation policy.
type ValidatedCreateUsername struct {
	base
}

func (c *ValidatedCreateUsername) Prompt() string { return c.outputString("prompt") }

// Policies returns the raw validation policy object the server declared.
func (c *ValidatedCreateUsername) Policies() any { return c.OutputValue("policies") }

// FailedPolicies returns the policies the previous submission violated.
func (c *ValidatedCreateUsername) FailedPolicies() []string {
	return c.outputStrings("failedPolicies")
}

func (c *ValidatedCreateUsername) SetUsername(username string) error {
	return c.SetInputValue(username)
}

// SetValidateOnly asks the server to validate without advancing the journey.
func (c *ValidatedCreateUsername) SetValidateOnly(validateOnly bool) error {
	return c.setInputNamed("validateOnly", validateOnly)
}

// ValidatedCreatePassword collects a new password subject to server-side
// validation policy.
type ValidatedCreatePassword struct {
	base
}

func (c *ValidatedCreatePassword) Prompt() string { return c.outputString("prompt") }

func (c *ValidatedCreatePassword) Policies() any { return c.OutputValue("policies") }

func (c *ValidatedCreatePassword) FailedPolicies() []string {
	return c.outputStrings("failedPolicies")
}

func (c *ValidatedCreatePassword) SetPassword(password string) error {
	return c.SetInputValue(password)
}

func (c *ValidatedCreatePassword) SetValidateOnly(validateOnly bool) error {
	return c.setInputNamed("validateOnly", validateOnly)
}
