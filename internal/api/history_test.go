package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if got := r.URL.Query().Get("chat_group_id"); got != "chat1" {
			t.Errorf("chat_group_id = %q, want chat1", got)
		}
		_, _ = w.Write([]byte(`{"messages":[
			{"MessageID":"m1","ChatGroupID":"chat1","SenderID":"alice","Message":"hi","timestamp":"1","MessageType":"text"},
			{"MessageID":"m2","ChatGroupID":"chat1","SenderID":"bob","Message":"hey","timestamp":"2","MessageType":"text"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	msgs, err := c.FetchHistory(context.Background(), "chat1")
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	// Server order is preserved verbatim.
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("order = %s, %s, want m1, m2", msgs[0].ID, msgs[1].ID)
	}
}

func TestFetchHistoryNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchHistory(context.Background(), "chat1"); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestFetchHistoryMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchHistory(context.Background(), "chat1"); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestFetchHistoryTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	if _, err := c.FetchHistory(context.Background(), "chat1"); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestDeleteMessage(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.DeleteMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotPath != "/messages/m1" {
		t.Errorf("path = %q, want /messages/m1", gotPath)
	}
}

func TestDeleteMessageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.DeleteMessage(context.Background(), "m1"); err == nil {
		t.Error("expected error for 404 response")
	}
}
