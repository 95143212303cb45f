package callbacks

import "encoding/json"

// DeviceProfile asks the client to gather a device fingerprint. The output
// flags declare which categories the server wants; the collected profile is
// submitted as a JSON document.
type DeviceProfile struct {
	base
}

// Message returns the text to display while collecting.
func (c *DeviceProfile) Message() string { return c.outputString("message") }

// RequireMetadata reports whether device metadata (platform, hardware) is
// requested.
func (c *DeviceProfile) RequireMetadata() bool {
	v, _ := c.OutputValue("metadata").(bool)
	return v
}

// RequireLocation reports whether a geolocation reading is requested.
func (c *DeviceProfile) RequireLocation() bool {
	v, _ := c.OutputValue("location").(bool)
	return v
}

// SetProfile submits the collected profile. The document is marshaled to
// JSON; the server expects a string-encoded object.
func (c *DeviceProfile) SetProfile(profile any) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.SetInputValue(string(raw))
}

// WebAuthnRegistration carries the parameters for a platform credential
// creation ceremony. The SDK builds and parses the ceremony parameters; it
// does not invoke the platform credential API itself.
type WebAuthnRegistration struct {
	base
}

// PublicKeyOptions unmarshals the server-declared credential-creation
// options into ref.
func (c *WebAuthnRegistration) PublicKeyOptions(ref any) error {
	return unmarshalOutput(&c.base, "publicKey", ref)
}

// RelyingPartyID returns the RP identifier the ceremony is scoped to.
func (c *WebAuthnRegistration) RelyingPartyID() string { return c.outputString("relyingPartyId") }

// SetAttestation submits the ceremony result produced by the platform API.
func (c *WebAuthnRegistration) SetAttestation(attestation string) error {
	return c.SetInputValue(attestation)
}

// WebAuthnAuthentication carries the parameters for a platform credential
// assertion ceremony.
type WebAuthnAuthentication struct {
	base
}

// PublicKeyOptions unmarshals the server-declared credential-request
// options into ref.
func (c *WebAuthnAuthentication) PublicKeyOptions(ref any) error {
	return unmarshalOutput(&c.base, "publicKey", ref)
}

// AllowedCredentialIDs returns the credential identifiers the server will
// accept for this assertion.
func (c *WebAuthnAuthentication) AllowedCredentialIDs() []string {
	return c.outputStrings("allowCredentials")
}

// SetAssertion submits the ceremony result produced by the platform API.
func (c *WebAuthnAuthentication) SetAssertion(assertion string) error {
	return c.SetInputValue(assertion)
}

func unmarshalOutput(b *base, name string, ref any) error {
	raw, err := json.Marshal(b.OutputValue(name))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, ref)
}
