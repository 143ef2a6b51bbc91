package speech

import (
	"context"
	"time"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/config"
	speechmodel "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/speech"
)

// Service 语音服务核心业务逻辑
type Service struct {
	config         *speechmodel.SpeechConfig
	ttsClient      *TTSClient
	sttClient      *STTClient
	connectionPool *ConnectionPool
}

// NewConfig 将环境配置转换为语音服务配置
func NewConfig(cfg config.SpeechConfig, sampleRate int) *speechmodel.SpeechConfig {
	return &speechmodel.SpeechConfig{
		APIKey:             cfg.APIKey,
		BaseURL:            cfg.BaseURL,
		StreamURL:          cfg.StreamURL,
		Language:           cfg.Language,
		STTModel:           cfg.STTModel,
		STTMode:            cfg.STTMode,
		SampleRate:         sampleRate,
		HighVADSensitivity: true,
		TTSModel:           cfg.TTSModel,
		TTSSpeaker:         cfg.TTSSpeaker,
		TTSPace:            cfg.TTSPace,
		Timeout:            time.Duration(cfg.Timeout) * time.Second,
	}
}

// NewService 创建语音服务实例
func NewService(cfg *speechmodel.SpeechConfig) *Service {
	connectionPool := NewConnectionPool(DefaultConnectionPoolOptions())

	return &Service{
		config:         cfg,
		ttsClient:      NewTTSClient(cfg, nil),
		sttClient:      NewSTTClient(cfg, connectionPool),
		connectionPool: connectionPool,
	}
}

// Cleanup 清理资源
func (s *Service) Cleanup() {
	if s.connectionPool != nil {
		s.connectionPool.Cleanup()
	}
}

// Synthesize 文字转语音，返回 WAV 字节
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.ttsClient.Synthesize(ctx, text)
}

// OpenStream 打开流式语音识别会话
func (s *Service) OpenStream(ctx context.Context) (*Stream, error) {
	return s.sttClient.Open(ctx)
}
