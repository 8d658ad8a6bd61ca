// Package notify delivers reminder notifications to the user.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Notifier delivers a reminder message to the user.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// CommandNotifier shells out to a configured command, passing the title
// and body as the final two arguments. This keeps the daemon desktop
// agnostic; notify-send, osascript and terminal-notifier all fit.
type CommandNotifier struct {
	command string
	logger  *slog.Logger
}

// NewCommandNotifier creates a notifier that executes the given command.
func NewCommandNotifier(command string, logger *slog.Logger) *CommandNotifier {
	return &CommandNotifier{
		command: command,
		logger:  logger.With("component", "notifier"),
	}
}

// Notify runs the configured command with the title and body appended.
func (n *CommandNotifier) Notify(ctx context.Context, title, body string) error {
	cmd := exec.CommandContext(ctx, n.command, title, body)
	if out, err := cmd.CombinedOutput(); err != nil {
		n.logger.Warn("notify command failed",
			"action", "notify",
			"command", n.command,
			"output", string(out),
			"error", err)
		return fmt.Errorf("running notify command: %w", err)
	}

	n.logger.Debug("notification delivered",
		"action", "notify",
		"title", title)
	return nil
}

// NoopNotifier discards notifications. Used when no reminder command
// is configured.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that does nothing.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify discards the notification.
func (n *NoopNotifier) Notify(ctx context.Context, title, body string) error {
	return nil
}
