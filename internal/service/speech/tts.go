package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	speechmodel "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/speech"
)

var (
	ErrEmptyText = errors.New("text is required")
	ErrNoAudio   = errors.New("tts response contained no audio")
)

// TTSClient calls the text-to-speech REST endpoint.
type TTSClient struct {
	config     *speechmodel.SpeechConfig
	httpClient *http.Client
}

func NewTTSClient(cfg *speechmodel.SpeechConfig, httpClient *http.Client) *TTSClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &TTSClient{config: cfg, httpClient: httpClient}
}

// Synthesize returns WAV audio for text.
func (c *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	key, err := resolveAPIKey(c.config)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(speechmodel.TTSRequest{
		Text:               text,
		TargetLanguageCode: c.config.Language,
		Speaker:            c.config.TTSSpeaker,
		Model:              c.config.TTSModel,
		Pace:               c.config.TTSPace,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/text-to-speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(subscriptionKeyHeader, key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded speechmodel.TTSResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode tts response: %w", err)
	}
	if len(decoded.Audios) == 0 || decoded.Audios[0] == "" {
		return nil, ErrNoAudio
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("decode tts audio: %w", err)
	}
	return audio, nil
}
