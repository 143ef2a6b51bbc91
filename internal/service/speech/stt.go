package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	speechmodel "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/speech"
)

const subscriptionKeyHeader = "Api-Subscription-Key"

// STTClient opens streaming transcription sessions.
type STTClient struct {
	config *speechmodel.SpeechConfig
	pool   *ConnectionPool
}

func NewSTTClient(cfg *speechmodel.SpeechConfig, pool *ConnectionPool) *STTClient {
	if pool == nil {
		pool = NewConnectionPool(nil)
	}
	return &STTClient{config: cfg, pool: pool}
}

// streamURL appends the recognition parameters to the configured endpoint.
func (c *STTClient) streamURL() (string, error) {
	u, err := url.Parse(c.config.StreamURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream url: %w", err)
	}

	q := u.Query()
	q.Set("language-code", c.config.Language)
	q.Set("model", c.config.STTModel)
	q.Set("mode", c.config.STTMode)
	q.Set("sample_rate", strconv.Itoa(c.config.SampleRate))
	q.Set("high_vad_sensitivity", strconv.FormatBool(c.config.HighVADSensitivity))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open dials the STT endpoint. The stream stays open until Close or until
// ctx is cancelled.
func (c *STTClient) Open(ctx context.Context) (*Stream, error) {
	key, err := resolveAPIKey(c.config)
	if err != nil {
		return nil, err
	}

	target, err := c.streamURL()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(subscriptionKeyHeader, key)

	streamCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	conn, err := c.pool.ConnectWithRetry(streamCtx, target, header, id)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stt stream: %w", err)
	}

	return &Stream{
		id:         id,
		conn:       conn,
		pool:       c.pool,
		cancel:     cancel,
		sampleRate: c.config.SampleRate,
		options:    c.pool.options,
	}, nil
}

// Stream is one live transcription session. Send and Recv may be called
// from different goroutines.
type Stream struct {
	id         string
	conn       *websocket.Conn
	pool       *ConnectionPool
	cancel     context.CancelFunc
	sampleRate int
	options    *ConnectionPoolOptions

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Send uploads one PCM frame.
func (s *Stream) Send(pcm []byte) error {
	frame := speechmodel.AudioFrame{Audio: speechmodel.AudioPayload{
		Data:       base64.StdEncoding.EncodeToString(pcm),
		Encoding:   "audio/wav",
		SampleRate: s.sampleRate,
	}}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.options.WriteTimeout))
	if err := s.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

// Recv blocks for the next event. It returns io.EOF once the server closes
// the stream.
func (s *Stream) Recv() (speechmodel.TranscriptEvent, error) {
	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		if IsClosedError(err) {
			return speechmodel.TranscriptEvent{}, io.EOF
		}
		return speechmodel.TranscriptEvent{}, fmt.Errorf("read stt event: %w", err)
	}
	s.conn.SetReadDeadline(time.Now().Add(s.options.ReadTimeout))

	return DecodeEvent(raw)
}

// Close ends the session and releases the connection.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.writeMu.Unlock()

		s.cancel()
		s.pool.Release(s.id)
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}

// DecodeEvent parses one raw STT stream message.
func DecodeEvent(raw []byte) (speechmodel.TranscriptEvent, error) {
	var envelope speechmodel.StreamMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return speechmodel.TranscriptEvent{}, fmt.Errorf("decode stt event: %w", err)
	}

	event := speechmodel.TranscriptEvent{Type: envelope.Type}
	if len(envelope.Data) == 0 {
		return event, nil
	}

	switch envelope.Type {
	case speechmodel.EventData:
		var data speechmodel.TranscriptData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return event, fmt.Errorf("decode transcript: %w", err)
		}
		event.Transcript = data.Transcript
		event.Language = data.LanguageCode
	case speechmodel.EventSignal:
		var data speechmodel.SignalData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return event, fmt.Errorf("decode signal: %w", err)
		}
		event.Signal = data.SignalType
	case speechmodel.EventError:
		var data speechmodel.ErrorData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			event.Err = string(envelope.Data)
		} else {
			event.Err = data.Error
		}
	}
	return event, nil
}
