package speech

import "time"

// SpeechConfig 语音服务配置
type SpeechConfig struct {
	APIKey    string `json:"-"`
	BaseURL   string `json:"baseUrl"`   // REST 基础地址
	StreamURL string `json:"streamUrl"` // 流式识别 WebSocket 地址
	Language  string `json:"language"`  // gu-IN

	// STT 配置
	STTModel           string `json:"sttModel"`
	STTMode            string `json:"sttMode"`
	SampleRate         int    `json:"sampleRate"`
	HighVADSensitivity bool   `json:"highVadSensitivity"`

	// TTS 配置
	TTSModel   string  `json:"ttsModel"`
	TTSSpeaker string  `json:"ttsSpeaker"`
	TTSPace    float64 `json:"ttsPace"`

	Timeout time.Duration `json:"timeout"`
}
