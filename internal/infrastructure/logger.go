// Package infrastructure builds the shared collaborators the pipeline
// stages receive explicitly: today that is the structured logger.
//
// The logger is constructed once in the entry point and passed into
// every stage, which derives a scoped child via logger.With("stage",
// ...). There is deliberately no package-global instance and no
// init-once state: ambient global configuration is how stage-scoped
// context gets lost.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salesdw/internal/config"
)

// NewLogger creates a structured slog.Logger from configuration.
// It returns the logger plus a close function for any log file opened;
// the close function is never nil.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var output io.Writer
	closer := noop

	switch strings.ToLower(cfg.Output) {
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, noop, err
		}
		output = file
		closer = file.Close
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, noop, err
		}
		output = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	default:
		output = os.Stdout
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return slog.New(handler), closer, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
