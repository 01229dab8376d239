// Package notify delivers best-effort push notifications for match and
// message events. Every implementation swallows failures: a missing
// subscription or a provider error is logged and never reaches the caller.
package notify

import (
	"context"
)

// Dispatcher is the capability the core calls into. Both methods are
// fire-and-forget and must never return an error or panic to the caller.
type Dispatcher interface {
	NotifyMatch(ctx context.Context, targetUserID uint64, counterpartName string)
	NotifyMessage(ctx context.Context, chatID string, senderID uint64, text string)
}

// Noop is used when push is not configured (no VAPID keys) and in tests.
type Noop struct{}

func (Noop) NotifyMatch(context.Context, uint64, string)          {}
func (Noop) NotifyMessage(context.Context, string, uint64, string) {}

// Recorder captures dispatched notifications for assertions in tests.
type Recorder struct {
	Matches  []uint64
	Messages []string
}

func (r *Recorder) NotifyMatch(_ context.Context, targetUserID uint64, _ string) {
	r.Matches = append(r.Matches, targetUserID)
}

func (r *Recorder) NotifyMessage(_ context.Context, chatID string, _ uint64, _ string) {
	r.Messages = append(r.Messages, chatID)
}

var _ Dispatcher = Noop{}
var _ Dispatcher = (*Recorder)(nil)
