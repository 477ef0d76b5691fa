package outbox

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/store"
)

// DeleteBackend is the server-side delete endpoint.
type DeleteBackend interface {
	DeleteMessage(ctx context.Context, id string) error
}

// Deleter applies the delete overlay: server first, then the local tombstone.
// The store is never touched when the server call fails, so a retry starts
// from the same visible state.
type Deleter struct {
	store          *store.Store
	backend        DeleteBackend
	bus            *bus.Bus
	logger         *zap.Logger
	conversationID string
}

// NewDeleter creates a delete pipeline for one conversation.
func NewDeleter(conversationID string, st *store.Store, backend DeleteBackend, b *bus.Bus, logger *zap.Logger) *Deleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deleter{
		store:          st,
		backend:        backend,
		bus:            b,
		logger:         logger,
		conversationID: conversationID,
	}
}

// RequestDelete deletes a confirmed message. Placeholder ids are a no-op: an
// unconfirmed send does not exist server-side yet. Errors surface to the
// caller for a user-visible retry decision; nothing is retried here.
func (d *Deleter) RequestDelete(ctx context.Context, id string) error {
	if strings.HasPrefix(id, chat.TempIDPrefix) {
		d.logger.Info("delete skipped for unconfirmed message", zap.String("msg_id", id))
		return nil
	}

	if err := d.backend.DeleteMessage(ctx, id); err != nil {
		d.logger.Warn("delete failed", zap.String("msg_id", id), zap.Error(err))
		return err
	}

	if d.store.MarkDeleted(id) {
		d.logger.Info("message deleted", zap.String("msg_id", id))
		d.bus.Publish(bus.Event{
			Kind:      "conversation.updated",
			Timestamp: time.Now(),
			Payload:   d.conversationID,
		})
	}
	return nil
}
