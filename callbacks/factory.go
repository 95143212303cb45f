package callbacks

// Generic is the passthrough handler for callback types this SDK does not
// model. It exposes only the raw output/input surface; unknown server
// extensions degrade to it instead of failing.
type Generic struct {
	base
}

// New instantiates the handler for a raw callback payload. The mapping is
// total: every known wire tag yields its typed handler and anything else
// yields a *Generic.
func New(raw Raw) Callback {
	switch raw.Type {
	case TypeName:
		return &Name{base: newBase(raw)}
	case TypePassword:
		return &Password{base: newBase(raw)}
	case TypeTextInput:
		return &TextInput{base: newBase(raw)}
	case TypeTextOutput:
		return &TextOutput{base: newBase(raw)}
	case TypeSuspendedTextOutput:
		return &SuspendedTextOutput{TextOutput: TextOutput{base: newBase(raw)}}
	case TypeChoice:
		return &Choice{base: newBase(raw)}
	case TypeConfirmation:
		return &Confirmation{base: newBase(raw)}
	case TypeHiddenValue:
		return &HiddenValue{base: newBase(raw)}
	case TypeMetadata:
		return &Metadata{base: newBase(raw)}
	case TypePollingWait:
		return &PollingWait{base: newBase(raw)}
	case TypeRedirect:
		return &Redirect{base: newBase(raw)}
	case TypeTermsAndConditions:
		return &TermsAndConditions{base: newBase(raw)}
	case TypeKbaCreate:
		return &KbaCreate{base: newBase(raw)}
	case TypeDeviceProfile:
		return &DeviceProfile{base: newBase(raw)}
	case TypeSelectIdP:
		return &SelectIdP{base: newBase(raw)}
	case TypeStringAttributeInput:
		return &StringAttributeInput{attributeInput: attributeInput{base: newBase(raw)}}
	case TypeNumberAttributeInput:
		return &NumberAttributeInput{attributeInput: attributeInput{base: newBase(raw)}}
	case TypeBooleanAttributeInput:
		return &BooleanAttributeInput{attributeInput: attributeInput{base: newBase(raw)}}
	case TypeValidatedCreateUsername:
		return &ValidatedCreateUsername{base: newBase(raw)}
	case TypeValidatedCreatePassword:
		return &ValidatedCreatePassword{base: newBase(raw)}
	case TypeWebAuthnRegistration:
		return &WebAuthnRegistration{base: newBase(raw)}
	case TypeWebAuthnAuthentication:
		return &WebAuthnAuthentication{base: newBase(raw)}
	case TypeReCaptcha:
		return &ReCaptcha{base: newBase(raw)}
	case TypeReCaptchaEnterprise:
		return &ReCaptchaEnterprise{ReCaptcha: ReCaptcha{base: newBase(raw)}}
	case TypePingOneProtectInit:
		return &ProtectInitialize{base: newBase(raw)}
	case TypePingOneProtectEvaluate:
		return &ProtectEvaluation{base: newBase(raw)}
	default:
		return &Generic{base: newBase(raw)}
	}
}
