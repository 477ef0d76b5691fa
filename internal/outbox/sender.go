// Package outbox contains the user-intent pipelines: optimistic sends and
// delete overlays.
package outbox

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/store"
)

// IntentSender is the outbound side of the live channel.
type IntentSender interface {
	Send(in chat.Intent)
}

// Sender turns a user's outbound text into an optimistic placeholder plus a
// transmitted intent. No acknowledgement is awaited: confirmation arrives
// later through the inbound path and resolves the placeholder there.
type Sender struct {
	store          *store.Store
	session        IntentSender
	bus            *bus.Bus
	logger         *zap.Logger
	conversationID string
}

// NewSender creates a send pipeline for one conversation.
func NewSender(conversationID string, st *store.Store, session IntentSender, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		store:          st,
		session:        session,
		bus:            b,
		logger:         logger,
		conversationID: conversationID,
	}
}

// Submit validates and sends a message. Blank input is a silent no-op. The
// placeholder is appended directly: temp ids are locally fresh, so the
// engine's dedup-by-id check has nothing to add here.
func (s *Sender) Submit(senderID, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}

	placeholder := chat.NewPlaceholder(s.conversationID, senderID, body)
	s.store.Append(placeholder)
	s.logger.Info("optimistic message appended",
		zap.String("msg_id", placeholder.ID),
		zap.String("sender", senderID))

	s.bus.Publish(bus.Event{
		Kind:      "conversation.updated",
		Timestamp: time.Now(),
		Payload:   s.conversationID,
	})

	s.session.Send(chat.Intent{SenderID: senderID, Body: body})
}
