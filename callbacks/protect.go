package callbacks

import "encoding/json"

// ProtectConfig is the configuration the server hands down for initializing
// a risk-evaluation SDK on the client.
type ProtectConfig struct {
	EnvID                    string   `json:"envId"`
	ConsoleLogEnabled        bool     `json:"consoleLogEnabled"`
	DeviceAttributesToIgnore []string `json:"deviceAttributesToIgnore,omitempty"`
	CustomHost               string   `json:"customHost,omitempty"`
	LazyMetadata             bool     `json:"lazyMetadata"`
	BehavioralDataCollection bool     `json:"behavioralDataCollection"`
}

// RiskHandle is the explicit bridge between the initialize and evaluation
// steps. The caller's risk SDK produces one from the initialize config and
// threads it into the evaluation callback; there is no process-wide
// "current SDK instance".
type RiskHandle struct {
	signals string
}

// NewRiskHandle wraps the opaque signals blob produced by the caller's risk
// SDK.
func NewRiskHandle(signals string) *RiskHandle {
	return &RiskHandle{signals: signals}
}

// Signals returns the opaque risk-signal payload.
func (h *RiskHandle) Signals() string { return h.signals }

// ProtectInitialize instructs the client to initialize risk-signal
// collection. The SDK only surfaces the configuration; actually starting
// collection is the caller's job.
type ProtectInitialize struct {
	base
}

// Config returns the server-declared initialization parameters.
func (c *ProtectInitialize) Config() (ProtectConfig, error) {
	var cfg ProtectConfig
	raw, err := json.Marshal(c.OutputValue("config"))
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetClientError reports a client-side initialization failure back to the
// server so the journey can branch accordingly.
func (c *ProtectInitialize) SetClientError(message string) error {
	return c.setInputNamed("clientError", message)
}

// ProtectEvaluation collects the gathered risk signals for server-side
// evaluation.
type ProtectEvaluation struct {
	base
}

// SetSignals submits the signals captured by the handle returned at
// initialize time.
func (c *ProtectEvaluation) SetSignals(h *RiskHandle) error {
	if h == nil {
		return c.SetInputValue("")
	}
	return c.SetInputValue(h.Signals())
}

// SetClientError reports a client-side collection failure back to the
// server.
func (c *ProtectEvaluation) SetClientError(message string) error {
	return c.setInputNamed("clientError", message)
}
