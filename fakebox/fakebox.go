// Package fakebox serves a scripted box API over httptest for tests.
package fakebox

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/moyoez/fbxcast/types"
)

// Reply overrides the envelope of one endpoint.
type Reply struct {
	Status    int // HTTP status, 200 when zero
	Success   bool
	ErrorCode string
	Msg       string
	Raw       string // sent verbatim when set
}

// Box is a fake box. Exported fields may be changed between calls under Lock/Unlock.
type Box struct {
	mu sync.Mutex

	Server     *httptest.Server
	Descriptor types.DeviceDescriptor

	AppToken     string
	TrackID      int
	Status       string // authorization status
	Challenge    string
	SessionToken string
	Receivers    []types.Receiver

	// Per-endpoint overrides keyed by "METHOD path", path relative to the API base.
	Replies map[string]Reply

	calls            map[string]int
	lastAuthHeader   string
	lastSessionReq   types.SessionStartRequest
	lastReceiverReq  types.ReceiverRequest
	lastReceiverName string
	receiverReqs     []types.ReceiverRequest
}

// New starts a box answering as API v8 under /api/.
func New(t testing.TB) *Box {
	t.Helper()
	b := &Box{
		Descriptor: types.DeviceDescriptor{
			UID:            "23b86ec8091013d668829fe12791fdab",
			FriendlyName:   "Freebox Server",
			APIVersion:     "8.0",
			APIBaseURL:     "/api/",
			DeviceType:     "FreeboxServer7,1",
			APIDomain:      "example.fbxos.fr",
			HTTPSAvailable: true,
			HTTPSPort:      3615,
		},
		AppToken:     "tok1",
		TrackID:      42,
		Status:       "pending",
		Challenge:    "VzhbtpR4r8CLaJle2QgJBEkyd8JPb0zL",
		SessionToken: "sess1",
		Receivers: []types.Receiver{{
			Name:         types.DefaultTargetReceiver,
			Capabilities: types.Capabilities{Photo: true, Audio: true, Video: true, Screen: true},
		}},
		Replies: map[string]Reply{},
		calls:   map[string]int{},
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// Host is the host:port to hand to clients.
func (b *Box) Host() string {
	u, _ := url.Parse(b.Server.URL)
	return u.Host
}

func (b *Box) Lock()   { b.mu.Lock() }
func (b *Box) Unlock() { b.mu.Unlock() }

// Reply sets an override for "METHOD path".
func (b *Box) Reply(key string, r Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Replies[key] = r
}

// Calls counts requests for "METHOD path"; an empty key counts every request.
func (b *Box) Calls(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if key == "" {
		total := 0
		for _, n := range b.calls {
			total += n
		}
		return total
	}
	return b.calls[key]
}

func (b *Box) LastAuthHeader() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuthHeader
}

func (b *Box) LastSessionRequest() types.SessionStartRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSessionReq
}

// LastReceiverRequest returns the last playback command and the receiver it targeted.
func (b *Box) LastReceiverRequest() (string, types.ReceiverRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReceiverName, b.lastReceiverReq
}

func (b *Box) ReceiverRequests() []types.ReceiverRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.ReceiverRequest(nil), b.receiverReqs...)
}

func (b *Box) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.URL.Path == "/api_version" {
		b.calls["GET api_version"]++
		if reply, ok := b.Replies["GET api_version"]; ok {
			b.writeReply(w, reply)
			return
		}
		writeJSON(w, http.StatusOK, b.Descriptor)
		return
	}

	prefix := b.Descriptor.APIBaseURL + "v" + b.Descriptor.MajorVersion() + "/"
	path, ok := strings.CutPrefix(r.URL.EscapedPath(), prefix)
	if !ok {
		http.NotFound(w, r)
		return
	}
	key := r.Method + " " + path
	b.calls[key]++
	b.lastAuthHeader = r.Header.Get(types.SessionTokenHeader)

	if reply, ok := b.Replies[key]; ok {
		b.writeReply(w, reply)
		return
	}

	switch {
	case key == "POST login/authorize/":
		var req types.TokenRequest
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil || req.AppID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error_code": "invalid_request", "msg": "bad body"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"app_token": b.AppToken, "track_id": b.TrackID},
		})
	case r.Method == http.MethodGet && strings.HasPrefix(path, "login/authorize/"):
		id, _ := strconv.Atoi(strings.Trim(strings.TrimPrefix(path, "login/authorize/"), "/"))
		if id != b.TrackID {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error_code": "noent", "msg": "unknown track id"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"status": b.Status, "challenge": b.Challenge},
		})
	case key == "GET login/":
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"logged_in": false, "challenge": b.Challenge},
		})
	case key == "POST login/session/":
		var req types.SessionStartRequest
		_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
		b.lastSessionReq = req
		if req.Password != expectedPassword(b.AppToken, b.Challenge) {
			writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error_code": "invalid_token", "msg": "bad password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"session_token": b.SessionToken, "challenge": b.Challenge},
		})
	case key == "POST login/logout/":
		if !b.authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case key == "GET airmedia/receivers/":
		if !b.authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": b.Receivers})
	case r.Method == http.MethodPost && strings.HasPrefix(path, "airmedia/receivers/"):
		if !b.authorized(w, r) {
			return
		}
		name, _ := url.PathUnescape(strings.Trim(strings.TrimPrefix(path, "airmedia/receivers/"), "/"))
		var req types.ReceiverRequest
		_ = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
		b.lastReceiverName = name
		b.lastReceiverReq = req
		b.receiverReqs = append(b.receiverReqs, req)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error_code": "invalid_api_version", "msg": "unknown endpoint"})
	}
}

func (b *Box) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(types.SessionTokenHeader) != b.SessionToken {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error_code": "auth_required", "msg": "Authentication required"})
		return false
	}
	return true
}

func (b *Box) writeReply(w http.ResponseWriter, reply Reply) {
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if reply.Raw != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply.Raw))
		return
	}
	writeJSON(w, status, map[string]any{"success": reply.Success, "error_code": reply.ErrorCode, "msg": reply.Msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, _ := sonic.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func expectedPassword(appToken, challenge string) string {
	mac := hmac.New(sha1.New, []byte(appToken))
	mac.Write([]byte(challenge))
	return hex.EncodeToString(mac.Sum(nil))
}
