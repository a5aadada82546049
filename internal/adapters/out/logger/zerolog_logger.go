package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type ZerologLogger struct {
	logger zerolog.Logger
	module string
}

// NewLogger пишет в stdout: в local окружении человекочитаемо, иначе JSON
func NewLogger(cfg *config.Config) *ZerologLogger {
	var w io.Writer = os.Stdout
	if cfg.IsLocal() {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05.000"}
	}

	location := cfg.Location()
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(location)
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return NewZerologLogger(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) WithFields(fields out.LogFields) out.LoggerPort {
	return &ZerologLogger{
		logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger(),
		module: l.module,
	}
}

func (l *ZerologLogger) WithModule(module string) out.LoggerPort {
	return &ZerologLogger{
		logger: l.logger,
		module: module,
	}
}

func (l *ZerologLogger) Debug(event string, fields out.LogFields) {
	l.log(l.logger.Debug(), event, fields)
}

func (l *ZerologLogger) Info(event string, fields out.LogFields) {
	l.log(l.logger.Info(), event, fields)
}

func (l *ZerologLogger) Warn(event string, fields out.LogFields) {
	l.log(l.logger.Warn(), event, fields)
}

func (l *ZerologLogger) Error(event string, fields out.LogFields) {
	l.log(l.logger.Error(), event, fields)
}

func (l *ZerologLogger) log(e *zerolog.Event, event string, fields out.LogFields) {
	// Выключенный уровень возвращает nil
	if e == nil {
		return
	}

	module := l.module
	if module == "" {
		module = "unknown"
	}

	e.Str("module", module).
		Fields(map[string]interface{}(fields)).
		Msg(event)
}
