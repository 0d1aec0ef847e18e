package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/fbxcast/api/controllers"
	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/cast"
	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/fakebox"
	"github.com/moyoez/fbxcast/share"
	"github.com/moyoez/fbxcast/tool"
)

func setupServer(t *testing.T) (http.Handler, *fakebox.Box, *auth.Authenticator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tool.DefaultLogger.SetLevel(log.ErrorLevel)

	box := fakebox.New(t)
	a := auth.New(auth.Options{Host: box.Host()})
	probe := func(host string, count int, _ time.Duration, _ bool) (discovery.ProbeResult, error) {
		return discovery.ProbeResult{Host: host, Sent: count, Received: count, Reachable: true}, nil
	}
	server := NewServer(0, "http", Deps{Auth: a, Cast: cast.NewController(a, ""), Probe: probe})
	return server.Handler(), box, a
}

func do(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, BasePath+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := sonic.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", recorder.Body.String(), err)
	}
	return out
}

func TestFullFlow(t *testing.T) {
	handler, box, a := setupServer(t)

	if rec := do(t, handler, http.MethodPost, "/discover", nil); rec.Code != http.StatusOK {
		t.Fatalf("discover: %d %s", rec.Code, rec.Body)
	}
	rec := do(t, handler, http.MethodPost, "/pair", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["phase"] != "pending_approval" {
		t.Fatalf("pair: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, handler, http.MethodGet, "/pair/status", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "pending" {
		t.Fatalf("pair status: %d %s", rec.Code, rec.Body)
	}

	box.Lock()
	box.Status = "granted"
	box.Unlock()
	time.Sleep(time.Second) // poll limiter refill
	rec = do(t, handler, http.MethodGet, "/pair/status", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "granted" {
		t.Fatalf("pair status: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, handler, http.MethodPost, "/session", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["phase"] != "authenticated" {
		t.Fatalf("session: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, handler, http.MethodGet, "/receivers/target", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["availability"] != "ready" {
		t.Fatalf("target: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, handler, http.MethodPost, "/play", map[string]any{"url": "http://example.com/e1.mp4"})
	if rec.Code != http.StatusOK || decode(t, rec)["acknowledged"] != true {
		t.Fatalf("play: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, handler, http.MethodPost, "/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, handler, http.MethodPost, "/logout", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["phase"] != "disconnected" {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body)
	}
	if a.SessionToken() != "" {
		t.Fatal("session kept after logout")
	}
}

func TestErrorMapping(t *testing.T) {
	handler, box, _ := setupServer(t)

	// No descriptor yet.
	if rec := do(t, handler, http.MethodPost, "/pair", nil); rec.Code != http.StatusConflict {
		t.Fatalf("pair without descriptor: %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodPost, "/session", nil); rec.Code != http.StatusConflict {
		t.Fatalf("session without token: %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodGet, "/receivers", nil); rec.Code != http.StatusConflict {
		t.Fatalf("receivers without session: %d", rec.Code)
	}

	do(t, handler, http.MethodPost, "/discover", nil)
	box.Reply("POST login/authorize/", fakebox.Reply{Status: 403, ErrorCode: "new_apps_denied", Msg: "disabled"})
	rec := do(t, handler, http.MethodPost, "/pair", nil)
	body := decode(t, rec)
	if rec.Code != http.StatusForbidden || body["error_code"] != "new_apps_denied" || body["msg"] != "disabled" {
		t.Fatalf("rejected pair: %d %v", rec.Code, body)
	}

	box.Server.Close()
	if rec := do(t, handler, http.MethodPost, "/discover", nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("unreachable discover: %d", rec.Code)
	}
}

func TestPlayValidatesBody(t *testing.T) {
	handler, _, _ := setupServer(t)
	if rec := do(t, handler, http.MethodPost, "/play", map[string]any{"replace": true}); rec.Code != http.StatusBadRequest {
		t.Fatalf("play without url: %d", rec.Code)
	}
}

func TestPairStatusIsRateLimited(t *testing.T) {
	handler, _, _ := setupServer(t)
	var limited bool
	for i := 0; i < 5; i++ {
		if do(t, handler, http.MethodGet, "/pair/status", nil).Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Fatal("expected a 429 within five immediate polls")
	}
}

func TestHandshakeRoutesShareGuard(t *testing.T) {
	handler, box, _ := setupServer(t)
	if err := tool.BeginAction(controllers.ActionHandshake); err != nil {
		t.Fatal(err)
	}
	defer tool.EndAction(controllers.ActionHandshake)

	for _, path := range []string{"/pair/status", "/token/validity"} {
		if rec := do(t, handler, http.MethodGet, path, nil); rec.Code != http.StatusConflict {
			t.Fatalf("%s during handshake: %d %s", path, rec.Code, rec.Body)
		}
	}
	if box.Calls("") != 0 {
		t.Fatalf("guarded routes reached the box %d times", box.Calls(""))
	}
}

func TestStatusReportsActivity(t *testing.T) {
	handler, _, _ := setupServer(t)
	share.RememberBox(discovery.Announcement{Host: "192.168.1.42"})
	if err := tool.BeginAction(controllers.ActionPlayback); err != nil {
		t.Fatal(err)
	}
	defer tool.EndAction(controllers.ActionPlayback)

	rec := do(t, handler, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rec.Code, rec.Body)
	}
	body := decode(t, rec)
	inFlight, _ := body["in_flight"].([]any)
	if len(inFlight) != 1 || inFlight[0] != controllers.ActionPlayback {
		t.Fatalf("in_flight = %v", body["in_flight"])
	}
	var seen bool
	boxes, _ := body["seen_boxes"].([]any)
	for _, b := range boxes {
		if entry, ok := b.(map[string]any); ok && entry["host"] == "192.168.1.42" {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("seen_boxes = %v", body["seen_boxes"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler, _, _ := setupServer(t)
	rec := do(t, handler, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("status: %d, request id %q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
	if decode(t, rec)["state"].(map[string]any)["phase"] != "disconnected" {
		t.Fatalf("unexpected status %s", rec.Body)
	}
}

func TestDiagnostics(t *testing.T) {
	handler, _, _ := setupServer(t)
	rec := do(t, handler, http.MethodGet, "/diagnostics/ping?count=2", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["reachable"] != true {
		t.Fatalf("ping: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, handler, http.MethodGet, "/diagnostics/ping?count=0", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("ping count=0: %d", rec.Code)
	}
	rec = do(t, handler, http.MethodGet, "/qrcode?size=128", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qrcode: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("qrcode body is not a PNG")
	}
}
