// Package notify is the user-notification port: the transport and cache
// layers push transient messages here instead of rendering anything
// themselves.
package notify

import "go.uber.org/zap"

// Notifier receives user-facing messages.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns zap-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Info logs informational notification.
func (n *LogNotifier) Info(msg string) {
	n.logger.Info("notify", zap.String("message", msg))
}

// Warn logs warning notification.
func (n *LogNotifier) Warn(msg string) {
	n.logger.Warn("notify", zap.String("message", msg))
}

// Error logs error notification.
func (n *LogNotifier) Error(msg string) {
	n.logger.Error("notify", zap.String("message", msg))
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Info(string)  {}
func (NopNotifier) Warn(string)  {}
func (NopNotifier) Error(string) {}
