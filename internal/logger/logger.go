package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultService = "storefront-be"

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// Options selects the encoder and level of the process logger.
type Options struct {
	Env     string
	Level   string
	Service string
}

func (o Options) production() bool {
	return o.Env == "production" || o.Env == "staging"
}

// New builds a logger from opts. Production and staging log sampled JSON to
// stdout; anything else logs colored console output.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.production() {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	service := opts.Service
	if service == "" {
		service = defaultService
	}
	cfg.InitialFields = map[string]any{"service": service}
	if opts.Env != "" {
		cfg.InitialFields["env"] = opts.Env
	}

	return cfg.Build(zap.AddCaller())
}

// Init installs the process logger. A bad level falls back to the
// environment default rather than leaving the process without logs.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		opts.Level = ""
		if l, _ = New(opts); l == nil {
			return err
		}
	}
	mu.Lock()
	log = l
	mu.Unlock()
	return err
}

// L returns the process logger, building one from APP_ENV on first use.
func L() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}
	_ = Init(Options{Env: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL")})
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Replace swaps the process logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := log
	log = l
	mu.Unlock()
	return func() {
		mu.Lock()
		log = prev
		mu.Unlock()
	}
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		_ = l.Sync()
	}
}
