package callbacks

import "encoding/json"

// IdPProvider is one social identity provider offered by a SelectIdP
// callback.
type IdPProvider struct {
	Provider string          `json:"provider"`
	UIConfig json.RawMessage `json:"uiConfig,omitempty"`
}

// SelectIdP collects the user's choice of social identity provider.
type SelectIdP struct {
	base
}

// Providers returns the offered providers in server order.
func (c *SelectIdP) Providers() []IdPProvider {
	raw, err := json.Marshal(c.OutputValue("providers"))
	if err != nil {
		return nil
	}
	var providers []IdPProvider
	if err := json.Unmarshal(raw, &providers); err != nil {
		return nil
	}
	return providers
}

// SetProvider selects a provider by name. The name is validated against the
// offered list at set-time.
func (c *SelectIdP) SetProvider(provider string) error {
	providers := c.Providers()
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.Provider == provider {
			return c.SetInputValue(provider)
		}
		names = append(names, p.Provider)
	}
	return &InvalidChoiceError{Value: provider, Choices: names}
}
