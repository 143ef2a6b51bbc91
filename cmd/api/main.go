package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/handler"
	speechhandler "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/handler/speech"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/logging"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/metrics"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/persona"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/ai"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/assistant"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/calendar"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/session"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/speech"
	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/tools"
)

func main() {
	logging.Preinit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, continuing with system environment variables only", "err", err)
	}

	if err := run(ctx); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	closeLog, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.RequireChat(); err != nil {
		return err
	}
	if err := cfg.RequireCalendar(); err != nil {
		return err
	}

	provider, err := newCalendarProvider(ctx, cfg.Calendar)
	if err != nil {
		return err
	}
	scheduler := calendar.NewScheduler(provider)

	m := metrics.New()

	p := persona.Default()
	p.Language = cfg.Assistant.Language

	store := session.NewStore(assistant.NewPromptBuilder(p).Build, session.Options{TTL: cfg.Assistant.SessionTTL})
	m.ObserveSessions(store.Len)
	go store.Run(ctx, cfg.Assistant.SweepInterval)

	dispatcher, err := tools.NewDispatcher(ctx, m, tools.SchedulingTools(scheduler)...)
	if err != nil {
		return err
	}

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		return err
	}

	a, err := assistant.New(chatModel, store, dispatcher, assistant.Options{
		MaxToolRounds: cfg.Assistant.MaxToolRounds,
		Apology:       p.Apology,
		Metrics:       m,
	})
	if err != nil {
		return err
	}

	var synth speechhandler.Synthesizer
	if cfg.Speech.Enabled() {
		svc := speech.NewService(speech.NewConfig(cfg.Speech, cfg.Voice.SampleRate))
		defer svc.Cleanup()
		synth = svc
		slog.Info("speech synthesis endpoint enabled")
	} else {
		slog.Info("SARVAM_API_KEY not set, speech endpoint disabled")
	}

	router := handler.NewRouter(a, synth, m)
	return startServer(ctx, cfg.Server, router)
}

func newCalendarProvider(ctx context.Context, cfg config.CalendarConfig) (calendar.Provider, error) {
	if cfg.Provider == config.CalendarMemory {
		slog.Warn("using in-memory calendar, bookings are lost on restart")
		return calendar.NewMemoryProvider(), nil
	}

	provider, err := calendar.NewGoogleProvider(ctx, cfg.ID, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	slog.Info("google calendar connected", "calendar", cfg.ID)
	return provider, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("SamaySetu backend listening", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
