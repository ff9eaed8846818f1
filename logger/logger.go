// Package logger provides the zerolog based loggers used across the
// bucket packages. Every package holds its own PkgLogger:
//
//	var log = logger.NewPkgLogger()
//
// The output is configured from LOG_* environment variables.
package logger

import (
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/rez-go/stev"
	"github.com/rs/zerolog"
	"github.com/tomasen/realip"
	"gopkg.in/natefinch/lumberjack.v2"
)

type (
	Logger = zerolog.Logger
)

type PkgLogger struct {
	Logger
}

const EnvPrefixDefault = "LOG_"

func newRollingFile(config Config) io.Writer {
	filename := config.Filename
	if filename == "" {
		filename = "bucket.log"
	}
	if err := os.MkdirAll(config.Directory, 0744); err != nil {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   path.Join(config.Directory, filename),
		MaxBackups: config.MaxBackups, // files
		MaxSize:    config.MaxSize,    // megabytes
		MaxAge:     config.MaxAge,     // days
	}
}

// New creates a logger from an explicit configuration.
func New(cfg Config) Logger {
	var consoleOut io.Writer = os.Stderr
	if cfg.Pretty {
		consoleOut = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	out := consoleOut
	if cfg.FileLogging {
		if fileOut := newRollingFile(cfg); fileOut != nil {
			out = zerolog.MultiLevelWriter(consoleOut, fileOut)
		}
	}

	logger := zerolog.New(out)
	if cfg.Level != "" {
		if level, err := zerolog.ParseLevel(cfg.Level); err == nil {
			logger = logger.Level(level)
		}
	}
	return logger
}

// NewPkgLogger creates a logger configured from the environment. A broken
// configuration falls back to the defaults.
func NewPkgLogger() PkgLogger {
	cfg := ConfigSkeleton()
	if err := stev.LoadEnv(EnvPrefixDefault, &cfg); err != nil {
		cfg = ConfigSkeleton()
	}
	logCtx := New(cfg).With().Timestamp().CallerWithSkipFrameCount(2)
	return PkgLogger{logCtx.Logger()}
}

func (logger PkgLogger) WithRequest(req *http.Request) *Logger {
	if req == nil {
		return &logger.Logger
	}

	var urlStr string
	if req.URL != nil {
		urlStr = req.URL.String()
	}
	remoteAddr := realip.FromRequest(req)
	if remoteAddr == "" {
		remoteAddr = req.RemoteAddr
	}
	l := logger.With().
		Str("method", req.Method).
		Str("url", urlStr).
		Str("remote_ip", remoteAddr).
		Str("user_agent", req.UserAgent()).
		Logger()

	return &l
}
