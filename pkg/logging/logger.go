// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides the structured logger shared by every stage of
// the repowiki pipeline: the flow engine's per-node execution, the LLM
// call layer, and the CLI entrypoint. Output goes to stderr by default,
// with an optional daily JSON log file for reruns and post-mortems.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("starting generate", "repo", repoSource)
//	logger.Error("stage failed", "stage", "AnalyzeRepo", "error", err)
//
// # File Logging
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.repowiki/logs",
//	    Service: "repowiki",
//	})
//	defer logger.Close()
//
// This writes JSON records to `{service}_{date}.log` in LogDir, in
// addition to the stderr stream (unless Quiet is set).
//
// # Per-Node Scoping
//
// The flow engine calls ForNode once per node execution so every log
// line from that node's prepare/execute/post lifecycle carries the
// run's session id and the node's name:
//
//	nodeLogger := logger.ForNode(sessionID, "generate_overall_architecture")
//	nodeLogger.Info("execute started", "attempt", 1)
//
// # Security Considerations
//
// This package does not redact sensitive data. Callers must ensure API
// keys and repository credentials are never passed as log attributes:
//
//	// BAD: logs the credential itself
//	logger.Info("auth", "token", apiKey)
//
//	// GOOD: log presence only
//	logger.Info("auth", "token_present", apiKey != "")
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
// Setting a minimum level filters out everything below it.
type Level int

const (
	// LevelDebug traces execution flow during development.
	LevelDebug Level = iota
	// LevelInfo confirms normal pipeline progress (stage start/end).
	LevelInfo
	// LevelWarn marks a recoverable condition (retry, degraded mode).
	LevelWarn
	// LevelError marks an operation failure the pipeline continues past.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel bridges Level to the standard library's slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. A zero-value Config logs Info+ to stderr
// as text.
type Config struct {
	// Level sets the minimum level; messages below it are discarded.
	Level Level

	// LogDir, when set, additionally writes JSON logs to
	// "{LogDir}/{Service}_{YYYY-MM-DD}.log". Supports a leading "~".
	// The directory is created with 0750 permissions if missing.
	LogDir string

	// Service names the component generating logs (e.g. "repowiki",
	// "flow-engine"), attached to every record as the "service" attribute.
	Service string

	// JSON switches the stderr stream to JSON rather than text. File
	// output is always JSON regardless of this setting.
	JSON bool

	// Quiet disables the stderr stream, leaving only file output (if
	// LogDir is set). Useful for CLI runs where --report already
	// captures the run's outcome and duplicate stderr noise isn't wanted.
	Quiet bool
}

// Logger wraps slog.Logger with an optional simultaneous file
// destination and cleanup via Close. Safe for concurrent use.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

// New builds a Logger from config: a stderr handler unless Quiet, plus
// a file handler if LogDir is set. The result must be closed with
// Close() to release the file handle.
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	if !config.Quiet {
		var stderrHandler slog.Handler
		if config.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, opts)
		}
		handlers = append(handlers, stderrHandler)
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "repowiki"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			logPath := filepath.Join(logDir, filename)

			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(os.Stderr, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns a Logger at LevelInfo, text format, stderr only,
// tagged with service "repowiki". Suitable for the CLI's ad hoc uses
// outside a full pipeline run.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "repowiki"})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child Logger carrying args on every subsequent record,
// sharing the parent's file handle. The parent is unmodified.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// ForNode returns a child logger scoped to one flow run and one graph
// node. The runner acquires one of these per node execution so every
// log line from that node's prepare/execute/post lifecycle can be
// attributed to a specific session without a tracing backend.
//
//	nodeLogger := logger.ForNode(sessionID, "generate_overall_architecture")
//	nodeLogger.Info("execute started", "attempt", 1)
func (l *Logger) ForNode(sessionID, nodeName string) *Logger {
	return l.With("session_id", sessionID, "node", nodeName)
}

// Slog returns the underlying slog.Logger, for callers that need
// features this wrapper doesn't expose (LogAttrs, custom Record handling).
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// multiHandler fans a record out to multiple slog handlers, so a run
// can emit text to stderr and JSON to a file simultaneously.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading "~" to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
