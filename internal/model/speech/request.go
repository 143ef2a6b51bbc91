package speech

// TTSRequest is the text-to-speech request body.
type TTSRequest struct {
	Text               string  `json:"text"`
	TargetLanguageCode string  `json:"target_language_code"`
	Speaker            string  `json:"speaker"`
	Model              string  `json:"model"`
	Pace               float64 `json:"pace"`
}

// AudioFrame carries one chunk of microphone audio on the STT stream.
type AudioFrame struct {
	Audio AudioPayload `json:"audio"`
}

type AudioPayload struct {
	Data       string `json:"data"` // base64 PCM
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}
