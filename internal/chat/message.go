package chat

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// KindText is the only message kind this client produces. The field is kept
// open-ended because the server may introduce other kinds.
const KindText = "text"

// TempIDPrefix marks locally-created placeholder messages that have not yet
// been confirmed by the server.
const TempIDPrefix = "temp-"

// Message is one chat message. Confirmed messages carry a server-assigned ID;
// optimistic local sends carry a temp- ID until the server echo arrives.
// The JSON tags are the wire format of the whychat server.
type Message struct {
	ID             string `json:"MessageID"`
	ConversationID string `json:"ChatGroupID"`
	SenderID       string `json:"SenderID"`
	Body           string `json:"Message"`
	Timestamp      string `json:"timestamp"`
	Kind           string `json:"MessageType"`
	Deleted        bool   `json:"IsDeleted,omitempty"`
}

// Intent is an outbound send request: the payload a user wants transmitted.
// The conversation scope rides on the channel, not the payload.
type Intent struct {
	SenderID string `json:"SenderID"`
	Body     string `json:"Message"`
}

// IsPlaceholder reports whether the message is an unconfirmed local send.
func (m Message) IsPlaceholder() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

var tempSeq atomic.Uint64

// NewTempID returns a clock-derived placeholder id, unique within the process
// even for same-millisecond calls.
func NewTempID() string {
	return fmt.Sprintf("%s%d-%d", TempIDPrefix, time.Now().UnixMilli(), tempSeq.Add(1))
}

// NewPlaceholder builds the optimistic message shown for a send before the
// server confirms it.
func NewPlaceholder(conversationID, senderID, body string) Message {
	return Message{
		ID:             NewTempID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Timestamp:      fmt.Sprintf("%d", time.Now().UnixMilli()),
		Kind:           KindText,
	}
}
