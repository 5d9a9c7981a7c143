package log

import (
	"fmt"
	"inspector/config"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 子系統 logger 名稱，輸出在 "logger" 欄位，方便依來源過濾
const (
	NameHTTP     = "http"
	NameRecorder = "recorder"
	NameStream   = "stream"
	NameCron     = "cron"
	NameTail     = "tail"
)

// NewLogger 輸出到 stdout（Warn 以下）與 stderr（Warn 以上）。
// 回傳的 AtomicLevel 可在設定檔變更時直接調整層級，不必重建 logger。
func NewLogger(conf *config.Configuration) (*zap.Logger, zap.AtomicLevel, error) {
	return New(conf, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

// New 與 NewLogger 相同，但可指定輸出目的地（測試用）
func New(conf *config.Configuration, stdout, stderr zapcore.WriteSyncer) (*zap.Logger, zap.AtomicLevel, error) {
	if conf == nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("logger: config is nil")
	}
	level := zap.NewAtomicLevelAt(ParseLevel(conf.Log.Level))

	encoder, err := newEncoder(conf.Log.Format)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stdout, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return level.Enabled(l) && l < zapcore.WarnLevel
		})),
		zapcore.NewCore(encoder, stderr, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return level.Enabled(l) && l >= zapcore.WarnLevel
		})),
	)
	// 高流量時 access log 與 recorder 訊息可能洗版，依設定取樣
	if conf.Log.SamplingInitial > 0 {
		thereafter := conf.Log.SamplingThereafter
		if thereafter <= 0 {
			thereafter = conf.Log.SamplingInitial
		}
		core = zapcore.NewSamplerWithOptions(core, time.Second, conf.Log.SamplingInitial, thereafter)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	logger.Info("zap logger ready",
		zap.String("level", level.String()),
		zap.String("format", formatOrDefault(conf.Log.Format)),
		zap.Int("sampling_initial", conf.Log.SamplingInitial),
	)
	return logger, level, nil
}

// ParseLevel 無法辨識的字串視為 info
func ParseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// ApplyLevel 套用新設定的 LOG.LEVEL，回傳是否有變更
func ApplyLevel(level zap.AtomicLevel, conf *config.Configuration) bool {
	next := ParseLevel(conf.Log.Level)
	if level.Level() == next {
		return false
	}
	level.SetLevel(next)
	return true
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.MessageKey = "message"
	encCfg.TimeKey = "ts"
	encCfg.NameKey = "logger"
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch formatOrDefault(format) {
	case config.LogFormatJSON:
		return zapcore.NewJSONEncoder(encCfg), nil
	case config.LogFormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("logger: unknown format %q", format)
	}
}

func formatOrDefault(format string) string {
	if format == "" {
		return config.LogFormatJSON
	}
	return format
}
