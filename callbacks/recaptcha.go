package callbacks

// ReCaptcha carries the site key for a CAPTCHA challenge and collects the
// resulting token.
type ReCaptcha struct {
	base
}

// SiteKey returns the server-declared CAPTCHA site key.
func (c *ReCaptcha) SiteKey() string { return c.outputString("recaptchaSiteKey") }

// SetToken submits the token produced by the CAPTCHA widget.
func (c *ReCaptcha) SetToken(token string) error { return c.SetInputValue(token) }

// ReCaptchaEnterprise is the enterprise CAPTCHA variant, which additionally
// declares the expected action and score threshold.
type ReCaptchaEnterprise struct {
	ReCaptcha
}

// APIURI returns the CAPTCHA script endpoint to load.
func (c *ReCaptchaEnterprise) APIURI() string { return c.outputString("captchaApiUri") }

// ElementClass returns the CSS class the widget should attach to.
func (c *ReCaptchaEnterprise) ElementClass() string { return c.outputString("class") }
