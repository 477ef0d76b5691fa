// Package stream owns the live channel of one conversation: the websocket
// connection, its reconnect loop, and the publication of decoded inbound
// messages on the bus.
package stream

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/status"
)

// DefaultReconnectDelay is the fixed delay between a connection failure and
// the next connect attempt. No backoff, no jitter.
const DefaultReconnectDelay = 3 * time.Second

// Session owns one duplex channel scoped to a conversation. A session is
// single-use: after Close it stays Disconnected forever and a fresh Session
// is required to reconnect.
type Session struct {
	wsBase         string
	conversationID string
	clientID       string
	bus            *bus.Bus
	machine        *status.Machine
	logger         *zap.Logger
	delay          time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	timer  *time.Timer
	closed bool
}

// Option configures a Session.
type Option func(*Session)

// WithReconnectDelay overrides the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// NewSession creates a session for the given conversation. wsBase is the
// websocket base URL, e.g. "ws://host:8080".
func NewSession(wsBase, conversationID string, b *bus.Bus, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		wsBase:         wsBase,
		conversationID: conversationID,
		clientID:       uuid.New().String(),
		bus:            b,
		machine:        status.NewMachine(b),
		logger:         logger.With(zap.String("conversation", conversationID)),
		delay:          DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current connection state.
func (s *Session) State() status.State {
	return s.machine.Current()
}

// Connect opens the channel. Calling it while a channel is already open or
// opening is ignored; calling it after Close is an error.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session closed")
	}
	switch s.machine.Current() {
	case status.Connecting, status.Connected:
		s.mu.Unlock()
		s.logger.Warn("connect ignored, channel already active")
		return nil
	}
	if err := s.machine.Transition(status.Connecting); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	u := fmt.Sprintf("%s/ws?chat_group_id=%s&client_id=%s",
		s.wsBase, url.QueryEscape(s.conversationID), s.clientID)
	s.logger.Info("connecting live channel", zap.String("client_id", s.clientID))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		s.logger.Warn("live channel connect failed", zap.Error(err))
		s.fail()
		return fmt.Errorf("dial live channel: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return fmt.Errorf("session closed")
	}
	s.conn = conn
	_ = s.machine.Transition(status.Connected)
	s.mu.Unlock()

	s.logger.Info("live channel connected")
	go s.readPump(conn)
	return nil
}

// Send serializes and transmits an outbound intent. While not Connected this
// is a no-op: the optimistic message stays visible locally but nothing goes
// out, and nothing is queued for later.
func (s *Session) Send(in chat.Intent) {
	s.mu.Lock()
	conn := s.conn
	connected := s.machine.Current() == status.Connected
	s.mu.Unlock()

	if !connected || conn == nil {
		s.logger.Warn("send skipped, channel not connected", zap.String("sender", in.SenderID))
		return
	}

	data, err := chat.EncodeIntent(in)
	if err != nil {
		s.logger.Error("failed to encode intent", zap.Error(err))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// The read pump observes the same broken connection and drives
		// the reconnect; nothing more to do here.
		s.logger.Warn("live channel write failed", zap.Error(err))
	}
}

// Close terminates the session for good: any open channel is closed, any
// pending reconnect is cancelled, and no future reconnection happens.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	if s.machine.Current() != status.Disconnected {
		_ = s.machine.Transition(status.Disconnected)
	}
	s.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.logger.Info("live channel closed")
}

func (s *Session) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			if closed {
				return
			}
			s.logger.Warn("live channel read failed", zap.Error(err))
			_ = conn.Close()
			s.fail()
			return
		}

		msg, err := chat.DecodeMessage(data)
		if err != nil {
			// Malformed unit: drop it, the channel stays up.
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		s.bus.Publish(bus.Event{
			Kind:      "stream.message",
			Timestamp: time.Now(),
			Payload:   msg,
		})
	}
}

// fail records a transport failure and schedules the next connect attempt
// after the fixed delay, unless the session has been closed.
func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_ = s.machine.Transition(status.Failed)
	_ = s.machine.Transition(status.ReconnectWait)
	s.logger.Info("reconnect scheduled", zap.Duration("delay", s.delay))
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		_ = s.Connect(context.Background())
	})
}
