package applog

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxFileSize = 5 << 20 // 5 MB
	maxValueLen = 200
	truncSuffix = "…"
	fileName    = "tabhost.log"
)

var (
	mu     sync.Mutex
	file   *os.File
	logger = zap.NewNop()
)

// Init opens the log file for appending. Call once at startup.
// If the file exceeds 5 MB, it is rotated (renamed to .log.1) before opening.
// Safe to skip: all log calls are no-ops until Init succeeds.
func Init(dir string, level string) error {
	path := filepath.Join(dir, fileName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Rotate if too large.
	if info, err := os.Stat(path); err == nil && info.Size() > maxFileSize {
		os.Rename(path, path+".1")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), lvl)

	mu.Lock()
	file = f
	logger = zap.New(core)
	mu.Unlock()
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	logger.Sync()
	logger = zap.NewNop()
	if file != nil {
		file.Close()
		file = nil
	}
}

// Debug logs a verbose event line.
func Debug(event string, kv ...any) {
	current().Debug(event, fields(kv)...)
}

// Info logs a structured event line.
//
//	applog.Info("tab.open", "window", wid, "tab", tid)
//	applog.Info("settings.saved", "history", 42)
func Info(event string, kv ...any) {
	current().Info(event, fields(kv)...)
}

// Warn logs a recoverable condition.
func Warn(event string, kv ...any) {
	current().Warn(event, fields(kv)...)
}

// Error logs an event with an error.
//
//	applog.Error("engine.surface.failed", err, "window", wid)
func Error(event string, err error, kv ...any) {
	fs := fields(kv)
	if err != nil {
		fs = append(fs, zap.String("err", truncate(err.Error())))
	}
	current().Error(event, fs...)
}

func current() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func fields(kv []any) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if s, ok := kv[i+1].(string); ok {
			out = append(out, zap.String(key, truncate(s)))
			continue
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}

func truncate(s string) string {
	if len(s) > maxValueLen {
		return s[:maxValueLen] + truncSuffix
	}
	return s
}
