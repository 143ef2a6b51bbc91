package speech

import (
	"errors"
	"strings"

	speechmodel "github.com/MokshankSoni-SDP/SamaySetu-AI/internal/model/speech"
)

var ErrMissingAPIKey = errors.New("speech api subscription key is not configured")

// resolveAPIKey 返回规范化后的订阅密钥，缺失时给出明确错误。
func resolveAPIKey(cfg *speechmodel.SpeechConfig) (string, error) {
	if cfg == nil {
		return "", ErrMissingAPIKey
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
