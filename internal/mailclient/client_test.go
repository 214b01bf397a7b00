package mailclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newClientAgainst(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestInbox(t *testing.T) {
	var gotAuth string
	client := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Message{
			{ID: "1::did:plc:alice::x", UserHandle: "alice.bsky.social", Message: "hi"},
		})
	}))

	messages, err := client.Inbox(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if gotAuth != "Bearer token-abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if len(messages) != 1 || messages[0].Message != "hi" {
		t.Errorf("unexpected inbox: %+v", messages)
	}
}

func TestUnauthorized(t *testing.T) {
	client := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := client.Inbox(context.Background(), "stale"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// Soft failures arrive as 200 with a failure envelope; the relay's own
// wording must surface to the caller.
func TestSendSoftFailure(t *testing.T) {
	client := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			User    string `json:"user"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode submit body: %v", err)
		}
		json.NewEncoder(w).Encode(statusResponse{Success: false, Error: "User not found"})
	}))

	err := client.Send(context.Background(), "token", "nobody.bsky.social", "hi")
	if err == nil || err.Error() != "User not found" {
		t.Fatalf("expected the relay's message, got %v", err)
	}
}

func TestDeleteForbiddenCarriesEnvelope(t *testing.T) {
	client := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Query().Get("id") == "" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(statusResponse{Success: false, Error: "Not allowed"})
	}))

	err := client.Delete(context.Background(), "token", "1::did:plc:alice::x")
	if err == nil || err.Error() != "Not allowed" {
		t.Fatalf("expected the relay's message, got %v", err)
	}
}

func TestDeleteSuccess(t *testing.T) {
	client := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(statusResponse{Success: true})
	}))

	if err := client.Delete(context.Background(), "token", "some-id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
