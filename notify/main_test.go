package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/fbxcast/types"
)

func TestSendPhaseNotification(t *testing.T) {
	received := make(chan Notification, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var n Notification
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- n
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := SendPhaseNotification(context.Background(), server.URL, "mafreebox.freebox.fr", types.PhasePendingApproval, types.PhaseAuthenticated)
	if err != nil {
		t.Fatalf("SendPhaseNotification: %v", err)
	}
	n := <-received
	if n.Type != "phase_change" || n.Data["from"] != "pending_approval" || n.Data["to"] != "authenticated" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestSendNotificationErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := SendNotification(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if err := SendNotification(context.Background(), nil, Options{URL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	if err := SendNotification(context.Background(), nil, Options{URL: server.URL}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestPhaseListenerPostsInBackground(t *testing.T) {
	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer server.Close()

	PhaseListener(server.URL, "box")(types.PhaseDisconnected, types.PhasePendingApproval)
	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification delivered")
	}
}
