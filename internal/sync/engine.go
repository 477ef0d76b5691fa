// Package sync folds inbound messages, from the one-shot history fetch and
// the live stream, into the conversation store.
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/store"
)

// Engine is the single point that mutates the store for inbound messages.
// It subscribes to "stream." events on the bus and processes them in order,
// serializing concurrent arrivals onto one goroutine.
type Engine struct {
	conversationID string
	store          *store.Store
	bus            *bus.Bus
	logger         *zap.Logger
	cancel         context.CancelFunc
}

// NewEngine creates a new reconciliation engine for one conversation store.
func NewEngine(conversationID string, st *store.Store, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		conversationID: conversationID,
		store:          st,
		bus:            b,
		logger:         logger,
	}
}

// Start subscribes to inbound live-stream events on the bus. The replay
// subscription means a message published just before Start is still seen.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.SubscribeReplay("stream.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	if evt.Kind != "stream.message" {
		return
	}
	msg, ok := evt.Payload.(chat.Message)
	if !ok {
		return
	}
	// A replay subscription can hand us the last message of a previous
	// session; other conversations never reach this store.
	if msg.ConversationID != "" && msg.ConversationID != e.conversationID {
		return
	}
	e.IngestLive(msg)
}

// IngestLive folds one live-stream message into the store:
//  1. a message whose id is already present is discarded (double delivery
//     from overlapping history and stream windows);
//  2. otherwise the first pending placeholder of the same sender, if any, is
//     replaced in place, resolving an optimistic send at its position;
//  3. otherwise the message is appended.
func (e *Engine) IngestLive(m chat.Message) {
	if _, ok := e.store.IndexByID(m.ID); ok {
		e.logger.Debug("duplicate message discarded", zap.String("msg_id", m.ID))
		return
	}

	if i, ok := e.store.FirstPendingPlaceholder(m.SenderID); ok {
		if e.store.ReplaceAt(i, m) {
			e.logger.Info("placeholder resolved",
				zap.String("msg_id", m.ID),
				zap.Int("index", i))
			e.publishUpdated()
			return
		}
	}

	e.store.Append(m)
	e.publishUpdated()
}

// IngestHistory folds a fetched history batch into the store. History-sourced
// messages never match placeholders: dedup by id, then append, keeping server
// order. Folding the same batch twice leaves the store unchanged.
func (e *Engine) IngestHistory(msgs []chat.Message) {
	added := 0
	for _, m := range msgs {
		if _, ok := e.store.IndexByID(m.ID); ok {
			continue
		}
		if e.store.Append(m) {
			added++
		}
	}
	if added > 0 {
		e.logger.Info("history ingested",
			zap.Int("messages", len(msgs)),
			zap.Int("added", added))
		e.publishUpdated()
	}
}

func (e *Engine) publishUpdated() {
	e.bus.Publish(bus.Event{
		Kind:      "conversation.updated",
		Timestamp: time.Now(),
		Payload:   e.conversationID,
	})
}
