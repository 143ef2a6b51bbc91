package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Calendar  CalendarConfig `validate:"-"`
	Assistant AssistantConfig
	Speech    SpeechConfig
	Voice     VoiceConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:    server,
		Log:       logCfg,
		AI:        ai,
		Calendar:  loadCalendarConfig(),
		Assistant: assistant,
		Speech:    speech,
		Voice:     voice,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// RequireChat 检查对话服务启动所需的凭证。
func (c *Config) RequireChat() error {
	if !c.AI.Enabled() {
		return oops.
			With("provider", c.AI.Provider).
			Errorf("language model credentials missing: set ARK_API_KEY + Model or OPENAI_API_KEY/GEMINI_API_KEY")
	}
	return nil
}

// RequireCalendar 检查日历后端配置，google 后端必须提供日历 ID 与凭证文件。
func (c *Config) RequireCalendar() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Calendar); err != nil {
		return oops.
			With("provider", c.Calendar.Provider).
			Errorf("invalid calendar config (CALENDAR_ID / GOOGLE_APPLICATION_CREDENTIALS): %w", err)
	}
	return nil
}

// RequireSpeech 检查语音桥接所需的凭证。
func (c *Config) RequireSpeech() error {
	if !c.Speech.Enabled() {
		return oops.Errorf("speech credentials missing: set SARVAM_API_KEY")
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `validate:"required"`
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, oops.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level     string
	File      string
	AddSource bool
}

func loadLogConfig() (LogConfig, error) {
	addSource, err := parseBoolEnv("LOG_ADD_SOURCE", false)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:     getEnvOrDefault("LOG_LEVEL", "info"),
		File:      strings.TrimSpace(os.Getenv("LOG_FILE")),
		AddSource: addSource,
	}, nil
}

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string `validate:"omitempty,oneof=ark openai"`
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// OpenAI 兼容接口（Gemini、OpenRouter 等）
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Enabled 表示是否提供了所选模型提供方的必需密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.arkEnabled()
	case ProviderOpenAI:
		return c.OpenAIKey != "" && c.OpenAIModel != ""
	default:
		return false
	}
}

func (c AIConfig) arkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewArkChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewArkChatModel(ctx context.Context) (*ark.ChatModel, error) {
	if !c.arkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:    strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		OpenAIModel: getEnvOrDefault("OPENAI_MODEL", "gemini-2.5-flash"),
	}

	// GEMINI_API_KEY 走 Gemini 的 OpenAI 兼容端点。
	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	defaultBaseURL := "https://api.openai.com/v1"
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	cfg.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", defaultBaseURL)

	if cfg.Provider == "" {
		switch {
		case cfg.arkEnabled():
			cfg.Provider = ProviderArk
		case cfg.OpenAIKey != "":
			cfg.Provider = ProviderOpenAI
		}
	}

	return cfg, nil
}

const (
	CalendarGoogle = "google"
	CalendarMemory = "memory"
)

// CalendarConfig 描述日历后端。
type CalendarConfig struct {
	Provider        string `validate:"oneof=google memory"`
	ID              string `validate:"required_if=Provider google"`
	CredentialsFile string `validate:"required_if=Provider google"`
}

func loadCalendarConfig() CalendarConfig {
	id := strings.TrimSpace(os.Getenv("CALENDAR_ID"))
	if id == "" {
		// 兼容旧的拼写
		id = strings.TrimSpace(os.Getenv("CALENDER_ID"))
	}

	return CalendarConfig{
		Provider:        strings.ToLower(getEnvOrDefault("CALENDAR_PROVIDER", CalendarGoogle)),
		ID:              id,
		CredentialsFile: getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", "service_account.json"),
	}
}

// AssistantConfig 描述对话循环与会话存储。
type AssistantConfig struct {
	Language      string        `validate:"required"`
	MaxToolRounds int           `validate:"min=1,max=8"`
	SessionTTL    time.Duration `validate:"min=0"`
	SweepInterval time.Duration `validate:"gt=0"`
}

func loadAssistantConfig() (AssistantConfig, error) {
	rounds := 1
	if override, err := parseOptionalIntEnv("ASSISTANT_MAX_TOOL_ROUNDS"); err != nil {
		return AssistantConfig{}, err
	} else if override != nil {
		rounds = *override
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return AssistantConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return AssistantConfig{}, err
	}

	return AssistantConfig{
		Language:      getEnvOrDefault("ASSISTANT_LANGUAGE", "Gujarati"),
		MaxToolRounds: rounds,
		SessionTTL:    ttl,
		SweepInterval: sweep,
	}, nil
}

// SpeechConfig 描述语音服务相关配置
type SpeechConfig struct {
	APIKey     string
	BaseURL    string  `validate:"required,url"`
	StreamURL  string  `validate:"required,url"`
	Language   string  `validate:"required"`
	STTModel   string  `validate:"required"`
	STTMode    string  `validate:"required"`
	TTSModel   string  `validate:"required"`
	TTSSpeaker string  `validate:"required"`
	TTSPace    float64 `validate:"gt=0,lte=3"`
	Timeout    int     `validate:"gt=0"`
}

// Enabled 表示是否提供了必需的密钥。
func (c SpeechConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSpeechConfig() (SpeechConfig, error) {
	// 解析超时设置
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30 // 默认30秒
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	pace, err := parseOptionalFloatEnv("SPEECH_TTS_PACE")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsPace := 1.0
	if pace != nil {
		ttsPace = *pace
	}

	return SpeechConfig{
		APIKey:     strings.TrimSpace(os.Getenv("SARVAM_API_KEY")),
		BaseURL:    getEnvOrDefault("SPEECH_BASE_URL", "https://api.sarvam.ai"),
		StreamURL:  getEnvOrDefault("SPEECH_STREAM_URL", "wss://api.sarvam.ai/speech-to-text/ws"),
		Language:   getEnvOrDefault("SPEECH_LANGUAGE", "gu-IN"),
		STTModel:   getEnvOrDefault("SPEECH_STT_MODEL", "saaras:v3"),
		STTMode:    getEnvOrDefault("SPEECH_STT_MODE", "transcribe"),
		TTSModel:   getEnvOrDefault("SPEECH_TTS_MODEL", "bulbul:v3"),
		TTSSpeaker: getEnvOrDefault("SPEECH_TTS_SPEAKER", "simran"),
		TTSPace:    ttsPace,
		Timeout:    timeoutSeconds,
	}, nil
}

// VoiceConfig 描述本地语音桥接。
type VoiceConfig struct {
	ChatURL         string `validate:"required,url"`
	SessionID       string
	SampleRate      int `validate:"gt=0"`
	FrameSamples    int `validate:"gt=0"`
	CaptureCommand  string
	PlaybackCommand string
}

func loadVoiceConfig() (VoiceConfig, error) {
	rate := 16000
	if override, err := parseOptionalIntEnv("VOICE_SAMPLE_RATE"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil {
		rate = *override
	}

	frame := 1024
	if override, err := parseOptionalIntEnv("VOICE_FRAME_SAMPLES"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil {
		frame = *override
	}

	return VoiceConfig{
		ChatURL:         getEnvOrDefault("CHAT_URL", "http://127.0.0.1:8000/chat"),
		SessionID:       strings.TrimSpace(os.Getenv("VOICE_SESSION_ID")),
		SampleRate:      rate,
		FrameSamples:    frame,
		CaptureCommand:  strings.TrimSpace(os.Getenv("VOICE_CAPTURE_CMD")),
		PlaybackCommand: strings.TrimSpace(os.Getenv("VOICE_PLAYBACK_CMD")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, oops.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, oops.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, oops.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, oops.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
