package chat

import (
	"encoding/json"
	"fmt"
)

// HistoryEnvelope is the response body of GET /messages.
type HistoryEnvelope struct {
	Messages []Message `json:"messages"`
}

// DecodeMessage parses one inbound wire frame into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.ID == "" {
		return Message{}, fmt.Errorf("decode message: missing MessageID")
	}
	return m, nil
}

// EncodeIntent serializes an outbound intent for the live channel.
func EncodeIntent(in Intent) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	return data, nil
}

// DecodeHistory parses the history fetch response body.
func DecodeHistory(data []byte) ([]Message, error) {
	var env HistoryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return env.Messages, nil
}
