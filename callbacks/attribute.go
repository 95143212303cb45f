package callbacks

// attributeInput carries the plumbing shared by the typed attribute
// collectors. Attribute callbacks identify a profile attribute by name and
// may carry validation policy plus previously failed policies.
type attributeInput struct {
	base
}

// AttributeName returns the profile attribute this callback populates.
func (c *attributeInput) AttributeName() string { return c.outputString("name") }

// Prompt returns the server-declared prompt text.
func (c *attributeInput) Prompt() string { return c.outputString("prompt") }

// Required reports whether the server marked the attribute mandatory.
func (c *attributeInput) Required() bool {
	v, _ := c.OutputValue("required").(bool)
	return v
}

// Policies returns the raw validation policy object, if declared.
func (c *attributeInput) Policies() any { return c.OutputValue("policies") }

// FailedPolicies returns the policies the previous submission violated.
func (c *attributeInput) FailedPolicies() []string { return c.outputStrings("failedPolicies") }

// SetValidateOnly asks the server to validate without persisting, for
// field-by-field feedback while the user types.
func (c *attributeInput) SetValidateOnly(validateOnly bool) error {
	return c.setInputNamed("validateOnly", validateOnly)
}

// StringAttributeInput collects a string-valued profile attribute.
type StringAttributeInput struct {
	attributeInput
}

func (c *StringAttributeInput) SetValue(value string) error { return c.SetInputValue(value) }

// NumberAttributeInput collects a numeric profile attribute.
type NumberAttributeInput struct {
	attributeInput
}

func (c *NumberAttributeInput) SetValue(value float64) error { return c.SetInputValue(value) }

// BooleanAttributeInput collects a boolean profile attribute.
type BooleanAttributeInput struct {
	attributeInput
}

func (c *BooleanAttributeInput) SetValue(value bool) error { return c.SetInputValue(value) }
