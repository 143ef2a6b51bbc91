package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("Model", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Assistant.MaxToolRounds != 1 {
		t.Fatalf("expected single tool round by default, got %d", cfg.Assistant.MaxToolRounds)
	}
	if cfg.Assistant.SessionTTL != 30*time.Minute {
		t.Fatalf("unexpected ttl: %s", cfg.Assistant.SessionTTL)
	}
	if cfg.Speech.Language != "gu-IN" || cfg.Speech.TTSSpeaker != "simran" {
		t.Fatalf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Voice.ChatURL != "http://127.0.0.1:8000/chat" {
		t.Fatalf("unexpected chat url: %s", cfg.Voice.ChatURL)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected AI disabled without credentials")
	}
	if err := cfg.RequireChat(); err == nil {
		t.Fatal("expected RequireChat to fail without credentials")
	}
}

func TestLoadCalendarLegacySpelling(t *testing.T) {
	t.Setenv("CALENDAR_ID", "")
	t.Setenv("CALENDER_ID", "clinic@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Calendar.ID != "clinic@example.com" {
		t.Fatalf("unexpected calendar id: %q", cfg.Calendar.ID)
	}
	if err := cfg.RequireCalendar(); err != nil {
		t.Fatalf("RequireCalendar err: %v", err)
	}
}

func TestRequireCalendarMissingID(t *testing.T) {
	t.Setenv("CALENDAR_ID", "")
	t.Setenv("CALENDER_ID", "")
	t.Setenv("CALENDAR_PROVIDER", "google")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if err := cfg.RequireCalendar(); err == nil {
		t.Fatal("expected missing calendar id to fail")
	}

	t.Setenv("CALENDAR_PROVIDER", "memory")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if err := cfg.RequireCalendar(); err != nil {
		t.Fatalf("memory provider should not need an id: %v", err)
	}
}

func TestLoadProviderDetection(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("Model", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENAI_BASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Fatalf("expected openai provider, got %q", cfg.AI.Provider)
	}
	if cfg.AI.OpenAIBaseURL != "https://generativelanguage.googleapis.com/v1beta/openai/" {
		t.Fatalf("unexpected base url: %s", cfg.AI.OpenAIBaseURL)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected AI enabled with gemini key")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ASSISTANT_MAX_TOOL_ROUNDS": "0",
		"SESSION_TTL":               "soon",
		"LLM_PROVIDER":              "claude",
		"PORT":                      "80 80",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%q to be rejected", key, value)
			}
		})
	}
}
