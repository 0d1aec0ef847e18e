// Package auth drives pairing with the box and the challenge-response session login.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/moyoez/fbxcast/discovery"
	"github.com/moyoez/fbxcast/store"
	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/transfer"
	"github.com/moyoez/fbxcast/types"
)

// Options configures an Authenticator. Zero values fall back to defaults.
type Options struct {
	Host       string
	Identity   types.AppIdentity
	HTTPClient *http.Client
	Store      store.CredentialStore
}

// Authenticator owns one logical connection to one box.
// Calls are blocking and expected one at a time; State stays consistent regardless.
type Authenticator struct {
	hostMu   sync.RWMutex
	host     string
	resolver *discovery.Resolver

	identity   types.AppIdentity
	httpClient *http.Client
	client     *transfer.Client
	store      store.CredentialStore
	state      *State
}

func New(opts Options) *Authenticator {
	if opts.Host == "" {
		opts.Host = tool.DefaultBoxHost
	}
	if opts.Identity == (types.AppIdentity{}) {
		opts.Identity = types.DefaultAppIdentity()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = tool.NewHTTPClient(tool.DefaultTimeouts())
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	return &Authenticator{
		host:       opts.Host,
		resolver:   discovery.NewResolver(opts.Host, opts.HTTPClient),
		identity:   opts.Identity,
		httpClient: opts.HTTPClient,
		client:     transfer.NewClient(opts.HTTPClient),
		store:      opts.Store,
		state:      newState(),
	}
}

// State exposes the owned connection state for reads and listeners.
func (a *Authenticator) State() *State {
	return a.state
}

func (a *Authenticator) Phase() types.ConnectionPhase {
	return a.state.Phase()
}

func (a *Authenticator) Descriptor() *types.DeviceDescriptor {
	return a.state.Descriptor()
}

// SessionToken returns the current session token, empty when logged out.
func (a *Authenticator) SessionToken() string {
	return a.state.session()
}

func (a *Authenticator) Identity() types.AppIdentity {
	return a.identity
}

func (a *Authenticator) Host() string {
	a.hostMu.RLock()
	defer a.hostMu.RUnlock()
	return a.host
}

// Client returns the call boundary shared with the cast controller.
func (a *Authenticator) Client() *transfer.Client {
	return a.client
}

// URL builds an endpoint on the resolved descriptor.
func (a *Authenticator) URL(path string) (string, error) {
	return tool.BuildAPIURL(a.Host(), a.state.Descriptor(), path)
}

// Discover resolves the descriptor from the bootstrap host and stores it.
// The phase is never changed.
func (a *Authenticator) Discover(ctx context.Context) (types.DeviceDescriptor, error) {
	a.hostMu.RLock()
	resolver := a.resolver
	a.hostMu.RUnlock()

	desc, err := resolver.Resolve(ctx)
	if err != nil {
		return types.DeviceDescriptor{}, err
	}
	a.state.setDescriptor(desc)
	return desc, nil
}

// Adopt uses a descriptor found some other way, such as an mDNS announcement.
// API calls and later discoveries then go to host instead of the bootstrap host.
func (a *Authenticator) Adopt(host string, desc types.DeviceDescriptor) error {
	if !desc.Complete() {
		return types.Precondition("adopt descriptor", "descriptor lacks api_base_url or api_version")
	}
	if host != "" {
		a.hostMu.Lock()
		a.host = host
		a.resolver = discovery.NewResolver(host, a.httpClient)
		a.hostMu.Unlock()
	}
	a.state.setDescriptor(desc)
	return nil
}

// Restore loads a persisted app credential. It reports whether one was found.
// The phase stays Disconnected until a session is established.
func (a *Authenticator) Restore() (bool, error) {
	cred, ok, err := a.store.Load()
	if err != nil {
		return false, fmt.Errorf("load app credential: %w", err)
	}
	if !ok {
		return false, nil
	}
	a.state.restoreApp(cred)
	tool.DefaultLogger.Infof("Restored app token %s (track id %d)", tool.Redact(cred.AppToken), cred.TrackID)
	return true, nil
}

// RequestAppToken asks the box for a new app token. The user must then confirm on the box.
func (a *Authenticator) RequestAppToken(ctx context.Context) (types.AppCredential, error) {
	const op = "request app token"
	url, err := a.URL("login/authorize/")
	if err != nil {
		return types.AppCredential{}, err
	}

	var env types.Envelope[types.AuthorizeResult]
	if err := a.client.Post(ctx, op, url, "", types.TokenRequest(a.identity), &env); err != nil {
		tool.DefaultLogger.Errorf("Error in app token request: %v", err)
		a.state.failPairing(errorFields(err))
		return types.AppCredential{}, err
	}
	if !env.Success {
		tool.DefaultLogger.Warnf("App token request refused: %s, %s", env.ErrorCode, env.Msg)
		a.state.failPairing(env.ErrorCode, env.Msg)
		return types.AppCredential{}, types.Rejected(op, env.ErrorCode, env.Msg)
	}
	if env.Result.AppToken == "" {
		err := types.ParseAmbiguous(op, fmt.Errorf("no app_token in result"))
		a.state.failPairing(errorFields(err))
		return types.AppCredential{}, err
	}

	cred := types.AppCredential{AppToken: env.Result.AppToken, TrackID: env.Result.TrackID}
	a.state.beginPairing(cred)
	if err := a.store.Save(cred); err != nil {
		tool.DefaultLogger.Warnf("Could not persist app token: %v", err)
	}
	tool.DefaultLogger.Infof("Got app token %s, track id %d; waiting for approval on the box", tool.Redact(cred.AppToken), cred.TrackID)
	return cred, nil
}

// PollApproval checks once whether the user confirmed the pairing on the box.
// Pending changes nothing. Granted allows EstablishSession. Anything else, a failed request
// or a missing track id included, discards the app credential and disconnects.
func (a *Authenticator) PollApproval(ctx context.Context) (types.ApprovalStatus, error) {
	const op = "poll approval"
	cred := a.state.appCredential()
	if cred.Empty() || cred.TrackID == 0 {
		a.discard("", "no track id")
		return types.ApprovalRejected, types.Precondition(op, "no pairing in progress")
	}
	url, err := a.URL("login/authorize/" + strconv.Itoa(cred.TrackID))
	if err != nil {
		// Nothing was asked, so there is no verdict and nothing to discard.
		return types.ApprovalPending, err
	}

	var env types.Envelope[types.AuthorizeStatus]
	if err := a.client.Get(ctx, op, url, "", &env); err != nil {
		tool.DefaultLogger.Errorf("Error polling approval: %v", err)
		a.discard(errorFields(err))
		return types.ApprovalRejected, err
	}
	if !env.Success {
		a.discard(env.ErrorCode, env.Msg)
		return types.ApprovalRejected, types.Rejected(op, env.ErrorCode, env.Msg)
	}

	status := types.ParseApprovalStatus(env.Result.Status)
	switch status {
	case types.ApprovalPending:
		tool.DefaultLogger.Debugf("App token %d still pending", cred.TrackID)
	case types.ApprovalGranted:
		tool.DefaultLogger.Infof("App token %d granted", cred.TrackID)
		a.state.markApproved()
	default:
		tool.DefaultLogger.Warnf("App token %d not granted: %q", cred.TrackID, env.Result.Status)
		a.discard("", env.Result.Status)
	}
	return status, nil
}

// CheckAppToken re-verifies a stored app token through the authorization status endpoint.
// An invalid token is discarded. A failed request is indeterminate and keeps the token.
func (a *Authenticator) CheckAppToken(ctx context.Context) (types.TokenValidity, error) {
	const op = "check app token"
	cred := a.state.appCredential()
	if cred.Empty() {
		return types.TokenInvalid, types.Precondition(op, "no app token")
	}
	if cred.TrackID == 0 {
		a.discard("", "no track id")
		return types.TokenInvalid, nil
	}
	url, err := a.URL("login/authorize/" + strconv.Itoa(cred.TrackID))
	if err != nil {
		return types.TokenIndeterminate, err
	}

	var env types.Envelope[types.AuthorizeStatus]
	if err := a.client.Get(ctx, op, url, "", &env); err != nil {
		return types.TokenIndeterminate, err
	}
	if !env.Success {
		a.discard(env.ErrorCode, env.Msg)
		return types.TokenInvalid, nil
	}
	switch types.ParseApprovalStatus(env.Result.Status) {
	case types.ApprovalGranted:
		a.state.markApproved()
		return types.TokenValid, nil
	case types.ApprovalPending:
		return types.TokenIndeterminate, nil
	default:
		a.discard("", env.Result.Status)
		return types.TokenInvalid, nil
	}
}

// EstablishSession logs in with the app token. An empty challenge is fetched from login/.
// Without an app token it fails with ErrPrecondition before any network call.
func (a *Authenticator) EstablishSession(ctx context.Context, challenge string) error {
	const op = "establish session"
	cred := a.state.appCredential()
	if cred.Empty() {
		return types.Precondition(op, "no app token, request one first")
	}
	sessionURL, err := a.URL("login/session/")
	if err != nil {
		return err
	}

	if challenge == "" {
		challenge, err = a.fetchChallenge(ctx)
		if err != nil {
			a.state.closeSession(errorFields(err))
			return err
		}
	}

	req := types.SessionStartRequest{
		Password:   ComputePassword(cred.AppToken, challenge),
		AppID:      a.identity.AppID,
		AppVersion: a.identity.AppVersion,
	}
	var env types.Envelope[types.SessionResult]
	if err := a.client.Post(ctx, op, sessionURL, "", req, &env); err != nil {
		tool.DefaultLogger.Errorf("Error opening session: %v", err)
		a.state.closeSession(errorFields(err))
		return err
	}
	if !env.Success {
		tool.DefaultLogger.Warnf("Session refused: %s, %s", env.ErrorCode, env.Msg)
		a.state.closeSession(env.ErrorCode, env.Msg)
		return types.Rejected(op, env.ErrorCode, env.Msg)
	}
	if env.Result.SessionToken == "" {
		err := types.ParseAmbiguous(op, fmt.Errorf("no session_token in result"))
		a.state.closeSession(errorFields(err))
		return err
	}

	a.state.openSession(env.Result.SessionToken)
	tool.DefaultLogger.Infof("Session opened: %s", tool.Redact(env.Result.SessionToken))
	return nil
}

func (a *Authenticator) fetchChallenge(ctx context.Context) (string, error) {
	const op = "fetch challenge"
	url, err := a.URL("login/")
	if err != nil {
		return "", err
	}
	var env types.Envelope[types.LoginChallenge]
	if err := a.client.Get(ctx, op, url, "", &env); err != nil {
		return "", err
	}
	if !env.Success {
		return "", types.Rejected(op, env.ErrorCode, env.Msg)
	}
	if env.Result.Challenge == "" {
		return "", types.ParseAmbiguous(op, fmt.Errorf("no challenge in result"))
	}
	return env.Result.Challenge, nil
}

// Logout closes the session. Without a session token it succeeds at once and no request is
// sent. When the box does not confirm, the state is left as it was.
func (a *Authenticator) Logout(ctx context.Context) error {
	const op = "logout"
	token := a.state.session()
	if token == "" {
		a.state.closeSession("", "")
		return nil
	}
	url, err := a.URL("login/logout/")
	if err != nil {
		return err
	}

	var env types.Envelope[struct{}]
	req := transfer.Request{Op: op, Method: http.MethodPost, URL: url, SessionToken: token, EmptyBody: true}
	if err := a.client.Do(ctx, req, &env); err != nil {
		tool.DefaultLogger.Errorf("Error logging out: %v", err)
		return err
	}
	if !env.Success {
		return types.Rejected(op, env.ErrorCode, env.Msg)
	}
	a.state.closeSession("", "")
	tool.DefaultLogger.Info("Logged out")
	return nil
}

// InvalidateSession drops a session the box no longer accepts.
func (a *Authenticator) InvalidateSession(code, msg string) {
	tool.DefaultLogger.Warnf("Session invalidated: %s, %s", code, msg)
	a.state.closeSession(code, msg)
}

// MarkReceiverReady promotes to ReceiverReady. It reports false without a session.
func (a *Authenticator) MarkReceiverReady() bool {
	return a.state.receiverReady()
}

// DemoteToAuthenticated drops ReceiverReady back to Authenticated.
func (a *Authenticator) DemoteToAuthenticated() {
	a.state.demoteToAuthenticated()
}

func (a *Authenticator) discard(code, msg string) {
	a.state.discardApp(code, msg)
	if err := a.store.Clear(); err != nil {
		tool.DefaultLogger.Warnf("Could not clear stored app token: %v", err)
	}
}

func errorFields(err error) (string, string) {
	if be, ok := types.AsBoxError(err); ok {
		if be.Msg != "" || be.Code != "" {
			return be.Code, be.Msg
		}
	}
	return "", err.Error()
}
