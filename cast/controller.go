// Package cast sends start/stop video commands to the target AirMedia receiver.
package cast

import (
	"context"
	"errors"
	"sync"

	"github.com/moyoez/fbxcast/auth"
	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// Error codes after which the session must not be reused.
var sessionErrorCodes = map[string]bool{
	"auth_required":   true,
	"invalid_token":   true,
	"invalid_session": true,
}

// Controller issues authenticated AirMedia calls over an Authenticator's session.
// Receiver readiness is re-checked before every playback command.
type Controller struct {
	auth *auth.Authenticator

	mu     sync.RWMutex
	target string
}

// NewController targets the receiver named target, "Freebox Player" when empty.
func NewController(a *auth.Authenticator, target string) *Controller {
	if target == "" {
		target = types.DefaultTargetReceiver
	}
	return &Controller{auth: a, target: target}
}

// Target returns the configured receiver name.
func (c *Controller) Target() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// SetTarget switches to another receiver. Readiness belongs to the old one, so the
// phase drops back to Authenticated.
func (c *Controller) SetTarget(name string) {
	if name == "" {
		name = types.DefaultTargetReceiver
	}
	c.mu.Lock()
	changed := c.target != name
	c.target = name
	c.mu.Unlock()
	if changed {
		c.auth.DemoteToAuthenticated()
		tool.DefaultLogger.Infof("Target receiver is now %q", name)
	}
}

func (c *Controller) session(op string) (string, error) {
	token := c.auth.SessionToken()
	if token == "" {
		return "", types.Precondition(op, "no session, log in first")
	}
	return token, nil
}

// ListReceivers fetches the receivers. An unexpected body yields an empty list, not an error.
func (c *Controller) ListReceivers(ctx context.Context) ([]types.Receiver, error) {
	const op = "list receivers"
	token, err := c.session(op)
	if err != nil {
		return nil, err
	}
	url, err := c.auth.URL("airmedia/receivers/")
	if err != nil {
		return nil, err
	}

	var env types.Envelope[[]types.Receiver]
	if err := c.auth.Client().Get(ctx, op, url, token, &env); err != nil {
		if errors.Is(err, types.ErrParseAmbiguous) {
			tool.DefaultLogger.Warnf("Receiver list unreadable, treating as empty: %v", err)
			return []types.Receiver{}, nil
		}
		return nil, err
	}
	if !env.Success {
		return nil, c.rejected(op, env.ErrorCode, env.Msg)
	}
	if env.Result == nil {
		return []types.Receiver{}, nil
	}
	return env.Result, nil
}

// FindTargetReceiver looks for the target receiver. FoundAndReady promotes the phase to
// ReceiverReady, any other outcome or failure demotes it to Authenticated.
func (c *Controller) FindTargetReceiver(ctx context.Context) (types.ReceiverAvailability, error) {
	target := c.Target()
	receivers, err := c.ListReceivers(ctx)
	if err != nil {
		c.auth.DemoteToAuthenticated()
		return types.ReceiverNotFound, err
	}

	availability := types.ReceiverNotFound
	for _, r := range receivers {
		if r.Name != target {
			continue
		}
		if r.PasswordProtected {
			availability = types.ReceiverPasswordProtected
		} else {
			availability = types.ReceiverFoundAndReady
		}
		break
	}

	switch availability {
	case types.ReceiverFoundAndReady:
		c.auth.MarkReceiverReady()
		tool.DefaultLogger.Infof("Receiver %q ready", target)
	case types.ReceiverPasswordProtected:
		c.auth.DemoteToAuthenticated()
		tool.DefaultLogger.Warnf("Receiver %q is protected by a password", target)
	default:
		c.auth.DemoteToAuthenticated()
		tool.DefaultLogger.Warnf("Receiver %q not found among %d receivers", target, len(receivers))
	}
	return availability, nil
}

// Play starts url on the target receiver and reports whether the box acknowledged it.
func (c *Controller) Play(ctx context.Context, mediaURL string) (bool, error) {
	if mediaURL == "" {
		return false, types.Precondition("play", "empty media url")
	}
	return c.command(ctx, "play", types.ReceiverRequest{
		Action:    types.ActionStart,
		MediaType: types.MediaTypeVideo,
		Media:     mediaURL,
	})
}

// Stop stops playback on the target receiver.
func (c *Controller) Stop(ctx context.Context) (bool, error) {
	return c.command(ctx, "stop", types.ReceiverRequest{
		Action:    types.ActionStop,
		MediaType: types.MediaTypeVideo,
	})
}

// Replace stops whatever plays, then starts url.
// A refused stop does not prevent the start.
func (c *Controller) Replace(ctx context.Context, mediaURL string) (bool, error) {
	if _, err := c.Stop(ctx); err != nil {
		if !errors.Is(err, types.ErrProtocolRejected) {
			return false, err
		}
		tool.DefaultLogger.Debugf("Stop before replace refused: %v", err)
	}
	return c.Play(ctx, mediaURL)
}

func (c *Controller) command(ctx context.Context, op string, req types.ReceiverRequest) (bool, error) {
	if _, err := c.session(op); err != nil {
		return false, err
	}
	availability, err := c.FindTargetReceiver(ctx)
	if err != nil {
		return false, err
	}
	if availability != types.ReceiverFoundAndReady {
		return false, types.Precondition(op, "receiver "+availability.String())
	}
	// FindTargetReceiver may have invalidated the session.
	token, err := c.session(op)
	if err != nil {
		return false, err
	}
	target := c.Target()
	url, err := c.auth.URL(tool.BuildReceiverPath(target))
	if err != nil {
		return false, err
	}

	var env types.Envelope[struct{}]
	if err := c.auth.Client().Post(ctx, op, url, token, req, &env); err != nil {
		return false, err
	}
	if !env.Success {
		return false, c.rejected(op, env.ErrorCode, env.Msg)
	}
	tool.DefaultLogger.Infof("%s acknowledged by %q", op, target)
	return true, nil
}

// rejected builds the error and drops the session when the box no longer accepts it.
func (c *Controller) rejected(op, code, msg string) error {
	if sessionErrorCodes[code] {
		c.auth.InvalidateSession(code, msg)
	}
	return types.Rejected(op, code, msg)
}
