package auth

import (
	"sync"

	"github.com/moyoez/fbxcast/types"
)

// PhaseListener is called after a phase change, outside the state lock.
type PhaseListener func(from, to types.ConnectionPhase)

// Snapshot is a consistent copy of the connection state.
type Snapshot struct {
	Phase         types.ConnectionPhase   `json:"phase"`
	Descriptor    *types.DeviceDescriptor `json:"descriptor,omitempty"`
	HasAppToken   bool                    `json:"has_app_token"`
	TrackID       int                     `json:"track_id,omitempty"`
	Approved      bool                    `json:"approved"`
	HasSession    bool                    `json:"has_session"`
	LastErrorCode string                  `json:"last_error_code,omitempty"`
	LastErrorMsg  string                  `json:"last_error_msg,omitempty"`
}

// State is the connection state owned by one Authenticator.
// Phase and credentials only change together, under mu, through the transition methods below,
// so no reader can observe Authenticated without a session token.
type State struct {
	mu           sync.RWMutex
	phase        types.ConnectionPhase
	descriptor   *types.DeviceDescriptor
	app          types.AppCredential
	approved     bool
	sessionToken string
	lastCode     string
	lastMsg      string

	listenersMu sync.RWMutex
	listeners   []PhaseListener
}

func newState() *State {
	return &State{phase: types.PhaseDisconnected}
}

// OnPhaseChange registers a listener.
func (s *State) OnPhaseChange(l PhaseListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *State) Phase() types.ConnectionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Phase:         s.phase,
		HasAppToken:   !s.app.Empty(),
		TrackID:       s.app.TrackID,
		Approved:      s.approved,
		HasSession:    s.sessionToken != "",
		LastErrorCode: s.lastCode,
		LastErrorMsg:  s.lastMsg,
	}
	if s.descriptor != nil {
		d := *s.descriptor
		snap.Descriptor = &d
	}
	return snap
}

// Descriptor returns a copy of the resolved descriptor, nil if none.
func (s *State) Descriptor() *types.DeviceDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.descriptor == nil {
		return nil
	}
	d := *s.descriptor
	return &d
}

func (s *State) appCredential() types.AppCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app
}

func (s *State) session() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// transition runs fn under the lock and notifies listeners if the phase moved.
func (s *State) transition(fn func()) {
	s.mu.Lock()
	from := s.phase
	fn()
	to := s.phase
	s.mu.Unlock()

	if from == to {
		return
	}
	s.listenersMu.RLock()
	listeners := append([]PhaseListener(nil), s.listeners...)
	s.listenersMu.RUnlock()
	for _, l := range listeners {
		l(from, to)
	}
}

// setDescriptor replaces the descriptor wholesale; the phase is untouched.
func (s *State) setDescriptor(d types.DeviceDescriptor) {
	s.transition(func() {
		s.descriptor = &d
	})
}

// restoreApp loads a persisted credential without changing the phase.
func (s *State) restoreApp(cred types.AppCredential) {
	s.transition(func() {
		s.app = cred
		s.approved = false
	})
}

// beginPairing stores a fresh app credential and waits for approval.
func (s *State) beginPairing(cred types.AppCredential) {
	s.transition(func() {
		s.app = cred
		s.approved = false
		s.sessionToken = ""
		s.phase = types.PhasePendingApproval
		s.clearErrorLocked()
	})
}

func (s *State) markApproved() {
	s.transition(func() {
		s.approved = true
	})
}

// discardApp drops every credential: the app token is no longer usable.
func (s *State) discardApp(code, msg string) {
	s.transition(func() {
		s.app = types.AppCredential{}
		s.approved = false
		s.sessionToken = ""
		s.phase = types.PhaseDisconnected
		s.setErrorLocked(code, msg)
	})
}

// failPairing records a failed authorization request. Any open session is closed with it.
func (s *State) failPairing(code, msg string) {
	s.transition(func() {
		s.approved = false
		s.sessionToken = ""
		s.phase = types.PhaseDisconnected
		s.setErrorLocked(code, msg)
	})
}

func (s *State) openSession(token string) {
	s.transition(func() {
		s.sessionToken = token
		s.approved = true
		s.phase = types.PhaseAuthenticated
		s.clearErrorLocked()
	})
}

// closeSession clears the session token and disconnects.
func (s *State) closeSession(code, msg string) {
	s.transition(func() {
		s.sessionToken = ""
		s.phase = types.PhaseDisconnected
		s.setErrorLocked(code, msg)
	})
}

// receiverReady promotes to ReceiverReady; it is a no-op without a session.
func (s *State) receiverReady() bool {
	ok := false
	s.transition(func() {
		if s.sessionToken == "" {
			return
		}
		s.phase = types.PhaseReceiverReady
		ok = true
	})
	return ok
}

// demoteToAuthenticated drops ReceiverReady back to Authenticated; it is a no-op without a session.
func (s *State) demoteToAuthenticated() {
	s.transition(func() {
		if s.sessionToken == "" {
			return
		}
		s.phase = types.PhaseAuthenticated
	})
}

func (s *State) setErrorLocked(code, msg string) {
	s.lastCode = code
	s.lastMsg = msg
}

func (s *State) clearErrorLocked() {
	s.lastCode = ""
	s.lastMsg = ""
}
