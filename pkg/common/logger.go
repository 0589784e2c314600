package common

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the logger of a binary. Mode is "development" for
// colored console output at debug level, "nop" for silence and anything
// else for JSON at info level. LOG_LEVEL style suffixes such as
// "production:debug" override the level.
func NewLogger(mode string) (*zap.Logger, error) {
	mode, level, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mode)), ":")
	var cfg zap.Config
	switch mode {
	case "nop", "off":
		return zap.NewNop(), nil
	case "development", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cfg.DisableStacktrace = true
	}
	if level != "" {
		if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	return cfg.Build()
}
