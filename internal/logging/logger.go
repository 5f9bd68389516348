// Package logging provides categorized file-based debug logging for opencodex.
// Logs are written to <config dir>/logs with one file per category and day.
// When debug mode is off every call is a silent no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup and configuration loading
	CategoryAPI     Category = "api"     // Ollama API requests and streaming
	CategoryTools   Category = "tools"   // Tool registry and tool execution
	CategoryExec    Category = "exec"    // Sandbox command execution
	CategoryPatch   Category = "patch"   // Patch parsing and application
	CategorySession Category = "session" // Session persistence
	CategoryChat    Category = "chat"    // Interactive chat loop
	CategoryConfig  Category = "config"  // Config loading and watching
)

// Logger writes category-tagged lines to a per-category file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	mu        sync.RWMutex
	loggers   = make(map[Category]*Logger)
	logsDir   string
	debugMode bool
)

// Initialize sets the logs directory and debug flag. Call once at startup.
// With debug disabled nothing is created and all loggers are no-ops.
func Initialize(dir string, debug bool) error {
	mu.Lock()
	debugMode = debug
	logsDir = filepath.Join(dir, "logs")
	mu.Unlock()

	if !debug {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("opencodex logging initialized")
	boot.Info("logs directory: %s", filepath.Join(dir, "logs"))
	return nil
}

// Enabled reports whether debug logging is active.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugMode
}

// Get returns (or creates) the logger for a category.
// Returns a no-op logger when debug mode is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if !debugMode || logsDir == "" {
		mu.RUnlock()
		return &Logger{category: category}
	}
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all open log files.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
		delete(loggers, cat)
	}
}

// Debug logs a debug-level message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an info-level message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// Convenience helpers, one pair per hot category.

func API(format string, args ...interface{})          { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{})     { Get(CategoryAPI).Debug(format, args...) }
func Tools(format string, args ...interface{})        { Get(CategoryTools).Info(format, args...) }
func ToolsDebug(format string, args ...interface{})   { Get(CategoryTools).Debug(format, args...) }
func Exec(format string, args ...interface{})         { Get(CategoryExec).Info(format, args...) }
func ExecDebug(format string, args ...interface{})    { Get(CategoryExec).Debug(format, args...) }
func Patch(format string, args ...interface{})        { Get(CategoryPatch).Info(format, args...) }
func PatchDebug(format string, args ...interface{})   { Get(CategoryPatch).Debug(format, args...) }
func Session(format string, args ...interface{})      { Get(CategorySession).Info(format, args...) }
func SessionDebug(format string, args ...interface{}) { Get(CategorySession).Debug(format, args...) }
func Chat(format string, args ...interface{})         { Get(CategoryChat).Info(format, args...) }
func ChatDebug(format string, args ...interface{})    { Get(CategoryChat).Debug(format, args...) }
func Config(format string, args ...interface{})       { Get(CategoryConfig).Info(format, args...) }
func ConfigDebug(format string, args ...interface{})  { Get(CategoryConfig).Debug(format, args...) }
