package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"whychat/internal/api"
	"whychat/internal/bus"
	"whychat/internal/chat"
	"whychat/internal/stream"
)

var upgrader = websocket.Upgrader{}

// chatServer fakes the whychat backend: history, delete and the live channel.
// The live channel confirms every received intent with a server message.
type chatServer struct {
	history   string
	deleteErr bool
	deletes   atomic.Int32
	accepts   atomic.Int32
	nextID    atomic.Int32
}

func (cs *chatServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		if cs.history == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(cs.history))
	})
	mux.HandleFunc("/messages/", func(w http.ResponseWriter, r *http.Request) {
		cs.deletes.Add(1)
		if cs.deleteErr {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cs.accepts.Add(1)
		conv := r.URL.Query().Get("chat_group_id")
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			var in chat.Intent
			if json.Unmarshal(data, &in) != nil {
				continue
			}
			reply, _ := json.Marshal(chat.Message{
				ID:             fmt.Sprintf("srv-%d", cs.nextID.Add(1)),
				ConversationID: conv,
				SenderID:       in.SenderID,
				Body:           in.Body,
				Kind:           chat.KindText,
			})
			if c.WriteMessage(websocket.TextMessage, reply) != nil {
				return
			}
		}
	})
	return mux
}

func newController(t *testing.T, cs *chatServer) *Controller {
	t.Helper()
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)
	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http")
	return NewController(api.NewClient(srv.URL), wsBase, bus.New(), nil,
		stream.WithReconnectDelay(50*time.Millisecond))
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestEnterLoadsHistoryAndConnects(t *testing.T) {
	cs := &chatServer{history: `{"messages":[
		{"MessageID":"m1","ChatGroupID":"chat1","SenderID":"bob","Message":"hi","timestamp":"1","MessageType":"text"}
	]}`}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")

	msgs := ctrl.Messages()
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("messages = %+v, want [m1]", msgs)
	}
	waitFor(t, func() bool { return cs.accepts.Load() == 1 }, "live channel never connected")
	if ctrl.Active() != "chat1" {
		t.Errorf("Active() = %q, want chat1", ctrl.Active())
	}
}

// A failed history fetch degrades to an empty thread; the live channel still
// comes up.
func TestEnterWithFailingHistory(t *testing.T) {
	cs := &chatServer{history: ""}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")

	if len(ctrl.Messages()) != 0 {
		t.Errorf("messages = %+v, want empty", ctrl.Messages())
	}
	waitFor(t, func() bool { return cs.accepts.Load() == 1 }, "live channel never connected")
}

// Full optimistic round trip: submit shows a placeholder at once, the server
// confirmation replaces it in place.
func TestSubmitRoundTrip(t *testing.T) {
	cs := &chatServer{history: `{"messages":[]}`}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")
	waitFor(t, func() bool { return cs.accepts.Load() == 1 }, "live channel never connected")

	ctrl.Submit("hello")

	msgs := ctrl.Messages()
	if len(msgs) != 1 || !msgs[0].IsPlaceholder() {
		t.Fatalf("messages = %+v, want one placeholder", msgs)
	}

	waitFor(t, func() bool {
		m := ctrl.Messages()
		return len(m) == 1 && m[0].ID == "srv-1"
	}, "placeholder never resolved to srv-1")

	if got := ctrl.Messages()[0]; got.Body != "hello" || got.SenderID != "alice" {
		t.Errorf("confirmed = %+v", got)
	}
}

func TestRequestDeleteTempIsLocalNoOp(t *testing.T) {
	cs := &chatServer{history: `{"messages":[]}`}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")

	if err := ctrl.RequestDelete(context.Background(), "temp-5"); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	if cs.deletes.Load() != 0 {
		t.Errorf("delete calls = %d, want 0 for a placeholder", cs.deletes.Load())
	}
}

func TestRequestDeleteMarksMessage(t *testing.T) {
	cs := &chatServer{history: `{"messages":[
		{"MessageID":"m1","ChatGroupID":"chat1","SenderID":"alice","Message":"hi","timestamp":"1","MessageType":"text"}
	]}`}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")

	if err := ctrl.RequestDelete(context.Background(), "m1"); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	if !ctrl.Messages()[0].Deleted {
		t.Error("message not marked deleted")
	}
	if len(ctrl.Messages()) != 1 {
		t.Error("delete removed the entry")
	}
}

func TestLeaveStopsReconnection(t *testing.T) {
	cs := &chatServer{history: `{"messages":[]}`}
	ctrl := newController(t, cs)

	ctrl.Enter(context.Background(), "chat1", "alice")
	waitFor(t, func() bool { return cs.accepts.Load() >= 1 }, "live channel never connected")

	ctrl.Leave()
	if ctrl.Active() != "" {
		t.Errorf("Active() = %q, want empty after Leave", ctrl.Active())
	}
	if ctrl.Messages() != nil {
		t.Error("store should be released after Leave")
	}

	settled := cs.accepts.Load()
	time.Sleep(300 * time.Millisecond)
	if got := cs.accepts.Load(); got != settled {
		t.Errorf("connections after Leave: %d -> %d", settled, got)
	}
}

// Re-entering builds a fresh store and a fresh session.
func TestReEnterStartsClean(t *testing.T) {
	cs := &chatServer{history: `{"messages":[]}`}
	ctrl := newController(t, cs)
	defer ctrl.Leave()

	ctrl.Enter(context.Background(), "chat1", "alice")
	ctrl.Submit("first visit")
	waitFor(t, func() bool {
		m := ctrl.Messages()
		return len(m) == 1 && !m[0].IsPlaceholder()
	}, "send never confirmed")

	ctrl.Enter(context.Background(), "chat1", "alice")
	waitFor(t, func() bool { return cs.accepts.Load() >= 2 }, "fresh session never connected")
	if len(ctrl.Messages()) != 0 {
		t.Errorf("messages = %+v, want empty fresh store", ctrl.Messages())
	}
}
