// Package logging builds the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog.Logger writing to stderr, optionally teed into
// logFile as well, and installs it as the slog default. The cleanup closes
// the log file when one was opened; callers defer it.
func New(level, logFile string) (*slog.Logger, func(), error) {
	out, cleanup, err := openOutput(logFile)
	if err != nil {
		return nil, nil, err
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler).With("app", "stageinv")
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func openOutput(logFile string) (io.Writer, func(), error) {
	if logFile == "" {
		return os.Stderr, func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return io.MultiWriter(os.Stderr, f), func() { _ = f.Close() }, nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
