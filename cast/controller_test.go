package cast

import (
	"context"
	"errors"
	"testing"

	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/fakebox"
	"github.com/moyoez/fbxcast/types"
)

func loggedIn(t *testing.T) (*Controller, *auth.Authenticator, *fakebox.Box) {
	t.Helper()
	box := fakebox.New(t)
	box.Lock()
	box.Status = "granted"
	box.Unlock()
	a := auth.New(auth.Options{Host: box.Host()})
	ctx := context.Background()
	if _, err := a.Discover(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := a.RequestAppToken(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := a.PollApproval(ctx); err != nil {
		t.Fatal(err)
	}
	if err := a.EstablishSession(ctx, ""); err != nil {
		t.Fatal(err)
	}
	return NewController(a, ""), a, box
}

func TestOperationsRequireSession(t *testing.T) {
	box := fakebox.New(t)
	a := auth.New(auth.Options{Host: box.Host()})
	if _, err := a.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}
	c := NewController(a, "")
	before := box.Calls("")

	if _, err := c.ListReceivers(context.Background()); !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("ListReceivers: %v", err)
	}
	if _, err := c.FindTargetReceiver(context.Background()); !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("FindTargetReceiver: %v", err)
	}
	if ok, err := c.Play(context.Background(), "http://example.com/v.mp4"); ok || !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("Play: %v %v", ok, err)
	}
	if ok, err := c.Stop(context.Background()); ok || !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("Stop: %v %v", ok, err)
	}
	if box.Calls("") != before {
		t.Fatal("network call made without session")
	}
}

func TestFindTargetReceiverReady(t *testing.T) {
	c, a, box := loggedIn(t)
	got, err := c.FindTargetReceiver(context.Background())
	if err != nil || got != types.ReceiverFoundAndReady {
		t.Fatalf("FindTargetReceiver = %v, %v", got, err)
	}
	if a.Phase() != types.PhaseReceiverReady {
		t.Fatalf("phase = %v", a.Phase())
	}
	if box.LastAuthHeader() != "sess1" {
		t.Fatalf("auth header = %q", box.LastAuthHeader())
	}
}

func TestFindTargetReceiverDemotes(t *testing.T) {
	cases := []struct {
		name      string
		receivers []types.Receiver
		want      types.ReceiverAvailability
	}{
		{"absent", []types.Receiver{{Name: "Salon TV"}}, types.ReceiverNotFound},
		{"empty", nil, types.ReceiverNotFound},
		{"protected", []types.Receiver{{Name: types.DefaultTargetReceiver, PasswordProtected: true}}, types.ReceiverPasswordProtected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, a, box := loggedIn(t)
			if _, err := c.FindTargetReceiver(context.Background()); err != nil {
				t.Fatal(err)
			}
			box.Lock()
			box.Receivers = tc.receivers
			box.Unlock()

			got, err := c.FindTargetReceiver(context.Background())
			if err != nil || got != tc.want {
				t.Fatalf("FindTargetReceiver = %v, %v", got, err)
			}
			if a.Phase() != types.PhaseAuthenticated {
				t.Fatalf("phase = %v", a.Phase())
			}
		})
	}
}

func TestListReceiversParseAmbiguityIsEmpty(t *testing.T) {
	c, _, box := loggedIn(t)
	box.Reply("GET airmedia/receivers/", fakebox.Reply{Raw: `{"success":true,"result":{"name":"oops"}`})
	got, err := c.ListReceivers(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("ListReceivers = %v, %v", got, err)
	}
}

func TestListReceiversAuthRejectionInvalidatesSession(t *testing.T) {
	c, a, box := loggedIn(t)
	box.Reply("GET airmedia/receivers/", fakebox.Reply{Status: 403, ErrorCode: "auth_required", Msg: "Invalid session token, or no session token sent"})

	_, err := c.ListReceivers(context.Background())
	if !errors.Is(err, types.ErrProtocolRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if a.Phase() != types.PhaseDisconnected || a.SessionToken() != "" {
		t.Fatalf("session kept: phase %v", a.Phase())
	}
}

func TestPlayAndStop(t *testing.T) {
	c, _, box := loggedIn(t)
	ok, err := c.Play(context.Background(), "http://example.com/episode.mp4")
	if err != nil || !ok {
		t.Fatalf("Play = %v, %v", ok, err)
	}
	name, req := box.LastReceiverRequest()
	if name != types.DefaultTargetReceiver {
		t.Fatalf("receiver = %q", name)
	}
	if req.Action != "start" || req.MediaType != "video" || req.Media != "http://example.com/episode.mp4" || req.Position != 0 {
		t.Fatalf("unexpected start request %+v", req)
	}

	ok, err = c.Stop(context.Background())
	if err != nil || !ok {
		t.Fatalf("Stop = %v, %v", ok, err)
	}
	_, req = box.LastReceiverRequest()
	if req.Action != "stop" || req.MediaType != "video" {
		t.Fatalf("unexpected stop request %+v", req)
	}
}

func TestPlayFailsWhenReceiverGone(t *testing.T) {
	c, a, box := loggedIn(t)
	box.Lock()
	box.Receivers = nil
	box.Unlock()

	ok, err := c.Play(context.Background(), "http://example.com/episode.mp4")
	if ok || !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("Play = %v, %v", ok, err)
	}
	if len(box.ReceiverRequests()) != 0 {
		t.Fatal("command sent to a missing receiver")
	}
	if a.Phase() != types.PhaseAuthenticated {
		t.Fatalf("phase = %v", a.Phase())
	}
}

func TestPlayRejected(t *testing.T) {
	c, a, box := loggedIn(t)
	box.Reply("POST airmedia/receivers/Freebox%20Player/", fakebox.Reply{ErrorCode: "invalid_request", Msg: "unsupported media"})

	ok, err := c.Play(context.Background(), "http://example.com/episode.mkv")
	if ok || !errors.Is(err, types.ErrProtocolRejected) {
		t.Fatalf("Play = %v, %v", ok, err)
	}
	if a.SessionToken() == "" {
		t.Fatal("non-auth rejection must keep the session")
	}
}

func TestReplaceStopsThenPlays(t *testing.T) {
	c, _, box := loggedIn(t)
	ok, err := c.Replace(context.Background(), "http://example.com/next.mp4")
	if err != nil || !ok {
		t.Fatalf("Replace = %v, %v", ok, err)
	}
	reqs := box.ReceiverRequests()
	if len(reqs) != 2 || reqs[0].Action != "stop" || reqs[1].Action != "start" {
		t.Fatalf("unexpected command sequence %+v", reqs)
	}
}

func TestSetTargetDemotes(t *testing.T) {
	c, a, box := loggedIn(t)
	if _, err := c.FindTargetReceiver(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.SetTarget("Salon")
	if a.Phase() != types.PhaseAuthenticated || c.Target() != "Salon" {
		t.Fatalf("phase %v target %q", a.Phase(), c.Target())
	}
	box.Lock()
	box.Receivers = append(box.Receivers, types.Receiver{Name: "Salon", Capabilities: types.Capabilities{Video: true}})
	box.Unlock()
	if ok, err := c.Play(context.Background(), "http://example.com/e2.mp4"); err != nil || !ok {
		t.Fatalf("Play = %v, %v", ok, err)
	}
	if name, _ := box.LastReceiverRequest(); name != "Salon" {
		t.Fatalf("command sent to %q", name)
	}
}

func TestFailedRepairBlocksPlayback(t *testing.T) {
	c, a, box := loggedIn(t)
	box.Reply("POST login/authorize/", fakebox.Reply{Status: 403, ErrorCode: "new_apps_denied", Msg: "disabled"})
	if _, err := a.RequestAppToken(context.Background()); err == nil {
		t.Fatal("expected pairing to fail")
	}
	before := box.Calls("")

	if ok, err := c.Play(context.Background(), "http://example.com/v.mp4"); ok || !errors.Is(err, types.ErrPrecondition) {
		t.Fatalf("Play = %v, %v", ok, err)
	}
	if box.Calls("") != before {
		t.Fatal("playback reached the box without a session")
	}
}
