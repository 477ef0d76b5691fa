package chat

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTempIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewTempID()
		if !strings.HasPrefix(id, TempIDPrefix) {
			t.Fatalf("temp id %q missing prefix", id)
		}
		if seen[id] {
			t.Fatalf("duplicate temp id %q", id)
		}
		seen[id] = true
	}
}

func TestIsPlaceholder(t *testing.T) {
	if !(Message{ID: "temp-123"}).IsPlaceholder() {
		t.Error("temp- id should be a placeholder")
	}
	if (Message{ID: "srv-9"}).IsPlaceholder() {
		t.Error("server id should not be a placeholder")
	}
}

func TestNewPlaceholder(t *testing.T) {
	m := NewPlaceholder("chat1", "alice", "hello")
	if !m.IsPlaceholder() {
		t.Errorf("id = %q, want temp- prefix", m.ID)
	}
	if m.ConversationID != "chat1" || m.SenderID != "alice" || m.Body != "hello" {
		t.Errorf("placeholder = %+v", m)
	}
	if m.Kind != KindText {
		t.Errorf("kind = %q, want %q", m.Kind, KindText)
	}
	if m.Deleted {
		t.Error("new placeholder must not be deleted")
	}
}

func TestDecodeMessageWireKeys(t *testing.T) {
	raw := `{"MessageID":"m1","ChatGroupID":"chat1","SenderID":"alice","Message":"hi","timestamp":"1700000000000","MessageType":"text"}`
	m, err := DecodeMessage([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if m.ID != "m1" || m.ConversationID != "chat1" || m.SenderID != "alice" || m.Body != "hi" {
		t.Errorf("decoded = %+v", m)
	}
	if m.Deleted {
		t.Error("IsDeleted absent should decode as false")
	}
}

func TestDecodeMessageMalformed(t *testing.T) {
	if _, err := DecodeMessage([]byte("{not json")); err == nil {
		t.Error("expected error for malformed frame")
	}
	if _, err := DecodeMessage([]byte(`{"SenderID":"a"}`)); err == nil {
		t.Error("expected error for frame without MessageID")
	}
}

func TestEncodeIntentWireKeys(t *testing.T) {
	data, err := EncodeIntent(Intent{SenderID: "alice", Body: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["SenderID"] != "alice" || got["Message"] != "hello" {
		t.Errorf("encoded = %v", got)
	}
}

func TestDecodeHistoryEnvelope(t *testing.T) {
	raw := `{"messages":[{"MessageID":"m1"},{"MessageID":"m2","IsDeleted":true}]}`
	msgs, err := DecodeHistory([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if !msgs[1].Deleted {
		t.Error("IsDeleted should decode to true")
	}
}
