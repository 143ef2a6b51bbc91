package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/chat"
)

// DefaultChatTimeout bounds one request to the chat endpoint.
const DefaultChatTimeout = 30 * time.Second

// Replier sends one caller utterance and returns the assistant reply.
type Replier interface {
	Chat(ctx context.Context, sessionID, text string) (string, error)
}

// ChatClient talks to the POST /chat endpoint.
type ChatClient struct {
	url        string
	httpClient *http.Client
}

func NewChatClient(url string, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultChatTimeout}
	}
	return &ChatClient{url: url, httpClient: httpClient}
}

func (c *ChatClient) Chat(ctx context.Context, sessionID, text string) (string, error) {
	body, err := json.Marshal(chat.ChatRequest{SessionID: sessionID, Text: text})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded chat.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return decoded.Reply, nil
}
