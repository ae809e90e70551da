package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	log  Logger = NullLogger{}
	once sync.Once
)

// InitLogger opens ~/.mindful/mindful.log and installs it as the process logger.
// The file is truncated on every run.
func InitLogger() error {
	var initErr error
	once.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get user home directory: %w", err)
			return
		}

		logDir := filepath.Join(homeDir, ".mindful")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create %s: %w", logDir, err)
			return
		}

		logFile, err := os.OpenFile(filepath.Join(logDir, "mindful.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			initErr = fmt.Errorf("failed to open log file: %w", err)
			return
		}

		log = New(logFile, zerolog.DebugLevel)
	})
	return initErr
}

// GetLogger returns the process logger. It is a NullLogger until InitLogger succeeds.
func GetLogger() Logger {
	return log
}

// New builds a Logger writing JSON lines to w.
func New(w io.Writer, level zerolog.Level) Logger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &ZerologAdapter{logger: &zl}
}

// ZerologAdapter adapts zerolog.Logger to our Logger interface
type ZerologAdapter struct {
	logger *zerolog.Logger
}

func (z *ZerologAdapter) Debug(msg string) { z.logger.Debug().Msg(msg) }
func (z *ZerologAdapter) Info(msg string)  { z.logger.Info().Msg(msg) }
func (z *ZerologAdapter) Warn(msg string)  { z.logger.Warn().Msg(msg) }
func (z *ZerologAdapter) Error(msg string) { z.logger.Error().Msg(msg) }
func (z *ZerologAdapter) Fatal(msg string) { z.logger.Fatal().Msg(msg) }
func (z *ZerologAdapter) WithField(key string, value interface{}) Logger {
	newLogger := z.logger.With().Interface(key, value).Logger()
	return &ZerologAdapter{logger: &newLogger}
}
