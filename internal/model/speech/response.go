package speech

import "encoding/json"

// STT stream message types.
const (
	EventData   = "data"
	EventSignal = "events"
	EventError  = "error"
)

// TTSResponse 语音合成响应
type TTSResponse struct {
	RequestID string   `json:"request_id,omitempty"`
	Audios    []string `json:"audios"`
}

// StreamMessage is the raw envelope received on the STT stream.
type StreamMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TranscriptData is the payload of a "data" message.
type TranscriptData struct {
	RequestID    string `json:"request_id,omitempty"`
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code,omitempty"`
}

// SignalData is the payload of an "events" message (voice activity).
type SignalData struct {
	SignalType string `json:"signal_type"`
}

// ErrorData is the payload of an "error" message.
type ErrorData struct {
	Error string `json:"error"`
}

// TranscriptEvent is a decoded STT stream message.
type TranscriptEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Language   string `json:"language,omitempty"`
	Signal     string `json:"signal,omitempty"`
	Err        string `json:"error,omitempty"`
}

// Final reports whether the event carries a usable transcript.
func (e TranscriptEvent) Final() bool {
	return e.Type == EventData && e.Transcript != ""
}
