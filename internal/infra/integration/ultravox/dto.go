package ultravox

type initiateCallRequest struct {
	PhoneNumber     string            `json:"phoneNumber"`
	Script          string            `json:"script"`
	ScriptVariables map[string]string `json:"scriptVariables"`
	CallbackURL     string            `json:"callbackUrl"`
	VoiceType       string            `json:"voiceType"`
	Language        string            `json:"language"`
	FirstMessage    string            `json:"firstMessage"`
	TelnyxConfig    telnyxConfig      `json:"telnyxConfig"`
}

type telnyxConfig struct {
	FromNumber string `json:"fromNumber"`
}

type initiateCallResponse struct {
	CallID string `json:"callId"`
	Status string `json:"status"`
}
