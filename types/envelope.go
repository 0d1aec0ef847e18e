package types

// Envelope is the shape every box API response shares.
// Missing fields keep their zero values and unknown fields are ignored.
type Envelope[T any] struct {
	Success   bool   `json:"success"`
	Result    T      `json:"result"`
	Msg       string `json:"msg"`
	ErrorCode string `json:"error_code"`
}

// AuthorizeResult is the result of POST login/authorize/.
type AuthorizeResult struct {
	AppToken string `json:"app_token"`
	TrackID  int    `json:"track_id"`
}

// AuthorizeStatus is the result of GET login/authorize/{track_id}.
type AuthorizeStatus struct {
	Status    string `json:"status"` // unknown | pending | timeout | granted | denied
	Challenge string `json:"challenge"`
}

// LoginChallenge is the result of GET login/.
type LoginChallenge struct {
	LoggedIn  bool   `json:"logged_in"`
	Challenge string `json:"challenge"`
}

// SessionResult is the result of POST login/session/.
type SessionResult struct {
	SessionToken string `json:"session_token"`
	Challenge    string `json:"challenge"`
}

// TokenRequest is the body of POST login/authorize/.
type TokenRequest = AppIdentity

// SessionStartRequest is the body of POST login/session/.
type SessionStartRequest struct {
	Password   string `json:"password"`
	AppID      string `json:"app_id"`
	AppVersion string `json:"app_version"`
}

// ReceiverRequest is the body of POST airmedia/receivers/{name}/.
type ReceiverRequest struct {
	Action    string `json:"action"`     // start | stop
	MediaType string `json:"media_type"` // photo | video
	Media     string `json:"media"`
	Position  int    `json:"position"`
	Password  string `json:"password"`
}

const (
	ActionStart    = "start"
	ActionStop     = "stop"
	MediaTypeVideo = "video"
)

// SessionTokenHeader carries the session token on authenticated calls.
const SessionTokenHeader = "X-Fbx-App-Auth"
