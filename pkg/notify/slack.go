// Package notify provides an optional Slack completion notifier:
// announcing that a session's CV or cover letter PDF finished rendering
// (feature-flagged, off by default).
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// postTimeout bounds each notification call; notifications must never
// hold up the render path's response.
const postTimeout = 5 * time.Second

// SlackNotifier posts a one-line message when a terminal artifact is
// produced. A nil *SlackNotifier is valid and a no-op, so callers can wire
// it unconditionally and let the feature flag decide at construction time.
type SlackNotifier struct {
	api       *goslack.Client
	channelID string
}

// NewSlackNotifier builds a notifier, or returns nil if disabled.
func NewSlackNotifier(enabled bool, token, channelID string) *SlackNotifier {
	if !enabled || token == "" || channelID == "" {
		return nil
	}
	return &SlackNotifier{api: goslack.New(token), channelID: channelID}
}

// NotifyRendered posts "session <id> finished rendering <kind>". Errors are
// logged, never returned: a notification failure must not fail the
// render path it's hooked into.
func (n *SlackNotifier) NotifyRendered(ctx context.Context, sessionID string, kind string) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	text := fmt.Sprintf("session %s finished rendering %s", sessionID, kind)
	if _, _, err := n.api.PostMessageContext(ctx, n.channelID, goslack.MsgOptionText(text, false)); err != nil {
		slog.Warn("notify: slack post failed", "session_id", sessionID, "kind", kind, "error", err)
	}
}
