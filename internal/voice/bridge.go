package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	speechmodel "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/speech"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/speech"
)

var ErrStreamClosed = errors.New("transcription stream closed by server")

const defaultQueueSize = 4

// TranscriptStream is a live speech-to-text session.
type TranscriptStream interface {
	Send(pcm []byte) error
	Recv() (speechmodel.TranscriptEvent, error)
	Close() error
}

// Transcriber opens transcription sessions.
type Transcriber interface {
	OpenStream(ctx context.Context) (TranscriptStream, error)
}

// Synthesizer renders text as WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type serviceTranscriber struct{ svc *speech.Service }

func (t serviceTranscriber) OpenStream(ctx context.Context) (TranscriptStream, error) {
	stream, err := t.svc.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// NewTranscriber exposes the speech service's streaming recognizer.
func NewTranscriber(svc *speech.Service) Transcriber {
	return serviceTranscriber{svc: svc}
}

// Options configures a Bridge.
type Options struct {
	SessionID string
	Greeting  string
	WaitLine  string
	// Apology is spoken when the chat endpoint cannot be reached.
	Apology   string
	QueueSize int
}

// Bridge connects microphone, transcription, the chat endpoint and playback.
type Bridge struct {
	source      Source
	transcriber Transcriber
	tts         Synthesizer
	speaker     Speaker
	chat        Replier
	opts        Options
}

func NewBridge(source Source, transcriber Transcriber, tts Synthesizer, speaker Speaker, chat Replier, opts Options) *Bridge {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Bridge{
		source:      source,
		transcriber: transcriber,
		tts:         tts,
		speaker:     speaker,
		chat:        chat,
		opts:        opts,
	}
}

// Run greets the caller and then serves turns until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.source.Close()
	b.say(ctx, b.opts.Greeting)

	stream, err := b.transcriber.OpenStream(ctx)
	if err != nil {
		return fmt.Errorf("open transcription stream: %w", err)
	}
	defer stream.Close()

	slog.Info("listening", "session", b.opts.SessionID)

	queue := make(chan string, b.opts.QueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = b.source.Close()
		_ = stream.Close()
		return nil
	})

	g.Go(func() error {
		for {
			frame, err := b.source.ReadFrame()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("capture: %w", err)
			}
			if err := stream.Send(frame); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	})

	g.Go(func() error {
		for {
			event, err := stream.Recv()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				if errors.Is(err, io.EOF) {
					return ErrStreamClosed
				}
				return err
			}

			switch {
			case event.Type == speechmodel.EventError:
				slog.Warn("transcription error", "err", event.Err)
			case event.Type == speechmodel.EventSignal:
				slog.Debug("voice activity", "signal", event.Signal)
			case event.Final():
				text := strings.TrimSpace(event.Transcript)
				if text == "" {
					continue
				}
				slog.Info("caller said", "text", text)
				select {
				case queue <- text:
				default:
					slog.Warn("turn queue full, dropping transcript", "text", text)
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case text := <-queue:
				b.turn(gctx, text)
			}
		}
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type chatResult struct {
	reply string
	err   error
}

// turn sends text to the chat endpoint and, while the request is in
// flight, plays the wait line.
func (b *Bridge) turn(ctx context.Context, text string) {
	done := make(chan chatResult, 1)
	go func() {
		reply, err := b.chat.Chat(ctx, b.opts.SessionID, text)
		done <- chatResult{reply: reply, err: err}
	}()

	b.say(ctx, b.opts.WaitLine)

	var res chatResult
	select {
	case <-ctx.Done():
		return
	case res = <-done:
	}

	if res.err != nil {
		slog.Error("chat request failed", "err", res.err)
		b.say(ctx, b.opts.Apology)
		return
	}

	slog.Info("assistant replied", "reply", res.reply)
	b.say(ctx, res.reply)
}

// say synthesizes and plays text. Failures are logged; the loop carries on.
func (b *Bridge) say(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	audio, err := b.tts.Synthesize(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("speech synthesis failed", "err", err)
		}
		return
	}
	if err := b.speaker.Play(ctx, audio); err != nil && ctx.Err() == nil {
		slog.Warn("playback failed", "err", err)
	}
}
