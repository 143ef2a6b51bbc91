package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/logging"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/persona"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/speech"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/voice"
)

// app holds what every subcommand needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	speech   *speech.Service
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "samaysetu-voice",
		Short: "Voice front end for the SamaySetu scheduling assistant",
		Long: `Voice front end for the SamaySetu scheduling assistant.

Captures microphone audio, streams it to speech recognition, forwards each
finished sentence to the chat server and speaks the reply.

Available subcommands:
  run         Start the voice loop
  say         Synthesize text and play it
  transcribe  Print raw recognition events from the microphone

Examples:
  samaysetu-voice run
  samaysetu-voice run --session caller-42 --chat-url http://127.0.0.1:8000/chat
  samaysetu-voice say "નમસ્તે" --out hello.wav
  samaysetu-voice transcribe`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			a.speech.Cleanup()
			return a.closeLog()
		},
	}

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newSayCmd(a))
	cmd.AddCommand(newTranscribeCmd(a))

	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireSpeech(); err != nil {
		return err
	}

	closeLog, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.closeLog = closeLog
	a.speech = speech.NewService(speech.NewConfig(cfg.Speech, cfg.Voice.SampleRate))
	return nil
}

func (a *app) startCapture(ctx context.Context) (*voice.FFmpegCapture, error) {
	capture, err := voice.NewFFmpegCapture(ctx, a.cfg.Voice.CaptureCommand, a.cfg.Voice.SampleRate, a.cfg.Voice.FrameSamples)
	if err != nil {
		return nil, err
	}
	if err := capture.Start(); err != nil {
		return nil, err
	}
	return capture, nil
}

// RunConfig holds flags for the run command
type RunConfig struct {
	SessionID string
	ChatURL   string
	QueueSize int
}

func newRunCmd(a *app) *cobra.Command {
	rc := &RunConfig{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the voice loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVoice(cmd.Context(), rc)
		},
	}

	cmd.Flags().StringVar(&rc.SessionID, "session", "", "Conversation session id (default: VOICE_SESSION_ID or a random id)")
	cmd.Flags().StringVar(&rc.ChatURL, "chat-url", "", "Chat endpoint (default: CHAT_URL)")
	cmd.Flags().IntVar(&rc.QueueSize, "queue", 4, "Finished sentences buffered while a turn is in progress")

	return cmd
}

func (a *app) runVoice(ctx context.Context, rc *RunConfig) error {
	sessionID := rc.SessionID
	if sessionID == "" {
		sessionID = a.cfg.Voice.SessionID
	}
	if sessionID == "" {
		sessionID = "voice-" + uuid.NewString()
	}

	chatURL := rc.ChatURL
	if chatURL == "" {
		chatURL = a.cfg.Voice.ChatURL
	}

	capture, err := a.startCapture(ctx)
	if err != nil {
		return err
	}

	p := persona.Default()
	bridge := voice.NewBridge(
		capture,
		voice.NewTranscriber(a.speech),
		a.speech,
		voice.NewCommandPlayer(a.cfg.Voice.PlaybackCommand),
		voice.NewChatClient(chatURL, nil),
		voice.Options{
			SessionID: sessionID,
			Greeting:  p.Greeting,
			WaitLine:  p.WaitLine,
			Apology:   p.Apology,
			QueueSize: rc.QueueSize,
		},
	)
	return bridge.Run(ctx)
}

func newSayCmd(a *app) *cobra.Command {
	var out string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "say <text>",
		Short: "Synthesize text and play it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			audio, err := a.speech.Synthesize(ctx, args[0])
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, audio, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(audio), out)
				return nil
			}
			return voice.NewCommandPlayer(a.cfg.Voice.PlaybackCommand).Play(ctx, audio)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the WAV to this file instead of playing it")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "Request timeout")

	return cmd
}

func newTranscribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe",
		Short: "Print raw recognition events from the microphone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.transcribe(cmd.Context(), cmd)
		},
	}
}

func (a *app) transcribe(ctx context.Context, cmd *cobra.Command) error {
	capture, err := a.startCapture(ctx)
	if err != nil {
		return err
	}
	defer capture.Close()

	stream, err := a.speech.OpenStream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	go func() {
		<-ctx.Done()
		_ = capture.Close()
		_ = stream.Close()
	}()

	go func() {
		for {
			frame, err := capture.ReadFrame()
			if err != nil {
				return
			}
			if err := stream.Send(frame); err != nil {
				return
			}
		}
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "listening, speak now (Ctrl+C to stop)")
	for {
		event, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", event)
	}
}
