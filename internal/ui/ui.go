package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"codepad/pkg/utils/logger"

	"go.uber.org/zap"
)

// Kind classifies a notification.
type Kind int

const (
	Success Kind = iota
	Error
	Warning
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Notifier surfaces a message to the user for the given duration.
type Notifier interface {
	Notify(kind Kind, message string, duration time.Duration)
}

// Navigator switches the active view. Fire-and-forget.
type Navigator interface {
	NavigateTo(path string)
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(kind Kind, message string, duration time.Duration)

func (f NotifyFunc) Notify(kind Kind, message string, duration time.Duration) {
	f(kind, message, duration)
}

// NavigateFunc adapts a function to the Navigator interface.
type NavigateFunc func(path string)

func (f NavigateFunc) NavigateTo(path string) {
	f(path)
}

// LogNotifier writes notifications to the structured log. The REPL uses it
// together with its own printed output.
type LogNotifier struct{}

func (LogNotifier) Notify(kind Kind, message string, duration time.Duration) {
	ctx := context.Background()
	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Duration("visible_for", duration),
	}
	switch kind {
	case Error:
		logger.Error(ctx, message, fields...)
	case Warning:
		logger.Warn(ctx, message, fields...)
	default:
		logger.Info(ctx, message, fields...)
	}
}

// ConsoleNotifier prints notifications to a writer, for terminal clients.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(kind Kind, message string, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "[%s] %s\n", kind, message)
}

// LogNavigator records navigation targets. The terminal client has no
// views to switch, so logging the target is the whole side effect.
type LogNavigator struct{}

func (LogNavigator) NavigateTo(path string) {
	logger.Debug(context.Background(), "navigate", zap.String("path", path))
}
