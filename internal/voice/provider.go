// Package voice abstracts the external voice-conversation provider.
package voice

import (
	"context"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

// Turn is one prior exchange handed to the provider as context.
// Context is role + text only; audio is never re-sent.
type Turn struct {
	Role string
	Text string
}

// Request carries everything the provider needs for one voice turn.
type Request struct {
	Context []Turn
	Audio   domain.AudioPayload
}

// Result is the provider's answer for one voice turn. ReplyAudio may be
// nil when the provider produced no spoken reply.
type Result struct {
	Transcript string
	ReplyText  string
	ReplyAudio *domain.AudioPayload
}

// Provider turns a learner's audio submission plus prior context into a
// transcript and an assistant reply. Implementations block on network I/O
// and must honor ctx cancellation.
type Provider interface {
	Converse(ctx context.Context, req Request) (Result, error)
}
