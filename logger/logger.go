package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Leveled loggers used across the service. They write to stderr until
// InitLoggers points them at the rotating log files.
var (
	InfoLogger  = logrus.New()
	WarnLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLoggers configures every logger with a JSON formatter and a rotated
// file sink under LOG_DIR (default "logs"), mirrored to stdout.
func InitLoggers() {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		ErrorLogger.Errorf("Failed to create log directory %s: %v", dir, err)
	}

	level := logrus.InfoLevel
	if parsed, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = parsed
	}

	configure(InfoLogger, filepath.Join(dir, "info.log"), level)
	configure(WarnLogger, filepath.Join(dir, "warn.log"), level)
	configure(ErrorLogger, filepath.Join(dir, "error.log"), level)
}

func configure(l *logrus.Logger, file string, level logrus.Level) {
	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // MB
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotated))
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	l.SetLevel(level)
}
