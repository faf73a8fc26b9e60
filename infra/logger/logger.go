package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/sfsbridge/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// Config selects the log level and an optional rotating log file written in
// addition to stdout.
type Config struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days,omitempty"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 5
	}
}

// Validate checks the level is known to zerolog.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
)

func currentOutput() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

// Setup applies cfg process wide. Loggers created afterwards write to the
// configured outputs. The returned closer releases the log file, if any.
func Setup(cfg Config) (io.Closer, error) {
	cfg.SetDefaults()
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)

	var closer io.Closer = nopCloser{}
	w := io.Writer(os.Stdout)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}
	mu.Lock()
	output = w
	mu.Unlock()
	return closer, nil
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
