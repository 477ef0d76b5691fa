// Package conversation ties the per-conversation components together: one
// store, one stream session, one reconciliation engine and the two intent
// pipelines, created on enter and released on leave.
package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"whychat/internal/api"
	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/outbox"
	"whychat/internal/status"
	"whychat/internal/store"
	"whychat/internal/stream"
	syncengine "whychat/internal/sync"
)

// Controller drives the active conversation. At most one conversation is
// active at a time; entering a new one tears down the previous session.
type Controller struct {
	api     *api.Client
	wsBase  string
	bus     *bus.Bus
	logger  *zap.Logger
	options []stream.Option

	mu       sync.Mutex
	store    *store.Store
	session  *stream.Session
	engine   *syncengine.Engine
	sender   *outbox.Sender
	deleter  *outbox.Deleter
	active   string
	senderID string
}

// NewController creates the conversation controller.
func NewController(apiClient *api.Client, wsBase string, b *bus.Bus, logger *zap.Logger, opts ...stream.Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:     apiClient,
		wsBase:  wsBase,
		bus:     b,
		logger:  logger,
		options: opts,
	}
}

// Enter joins a conversation as the given sender: fresh store, history fetch,
// live channel connect. A failed history fetch degrades to an empty thread
// and is only observable in the logs.
func (c *Controller) Enter(ctx context.Context, conversationID, senderID string) {
	c.Leave()

	c.mu.Lock()
	st := store.New()
	engine := syncengine.NewEngine(conversationID, st, c.bus, c.logger)
	session := stream.NewSession(c.wsBase, conversationID, c.bus, c.logger, c.options...)

	c.store = st
	c.engine = engine
	c.session = session
	c.sender = outbox.NewSender(conversationID, st, session, c.bus, c.logger)
	c.deleter = outbox.NewDeleter(conversationID, st, c.api, c.bus, c.logger)
	c.active = conversationID
	c.senderID = senderID
	c.mu.Unlock()

	c.logger.Info("entering conversation",
		zap.String("conversation", conversationID),
		zap.String("sender", senderID))

	history, err := c.api.FetchHistory(ctx, conversationID)
	if err != nil {
		c.logger.Warn("history fetch failed, rendering empty", zap.Error(err))
		history = nil
	}
	engine.IngestHistory(history)

	engine.Start(ctx)
	go func() {
		_ = session.Connect(ctx)
	}()
}

// Leave tears down the active conversation: the session is closed for good,
// the engine stops, the store is released. In-flight requests are abandoned,
// their eventual completion is discarded.
func (c *Controller) Leave() {
	c.mu.Lock()
	session := c.session
	engine := c.engine
	active := c.active
	c.store = nil
	c.session = nil
	c.engine = nil
	c.sender = nil
	c.deleter = nil
	c.active = ""
	c.senderID = ""
	c.mu.Unlock()

	if session != nil {
		session.Close()
	}
	if engine != nil {
		engine.Stop()
	}
	// The session's replay-1 publication dies with the session.
	c.bus.Forget("stream.")
	if active != "" {
		c.logger.Info("left conversation", zap.String("conversation", active))
		c.bus.Publish(bus.Event{
			Kind:      "conversation.left",
			Timestamp: time.Now(),
			Payload:   active,
		})
	}
}

// Active returns the id of the active conversation, or "".
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SenderID returns the sender identity of the active conversation.
func (c *Controller) SenderID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senderID
}

// Messages returns a read-only ordered snapshot of the active conversation.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	st := c.store
	c.mu.Unlock()
	if st == nil {
		return nil
	}
	return st.Snapshot()
}

// State returns the live-channel state of the active conversation.
func (c *Controller) State() status.State {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return status.Disconnected
	}
	return session.State()
}

// Submit sends a message in the active conversation.
func (c *Controller) Submit(body string) {
	c.mu.Lock()
	sender := c.sender
	senderID := c.senderID
	c.mu.Unlock()
	if sender == nil {
		return
	}
	sender.Submit(senderID, body)
}

// RequestDelete deletes a message in the active conversation.
func (c *Controller) RequestDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	deleter := c.deleter
	c.mu.Unlock()
	if deleter == nil {
		return nil
	}
	return deleter.RequestDelete(ctx, id)
}
