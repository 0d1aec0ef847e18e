package types

// ConnectionPhase is the single externally observed connection status.
type ConnectionPhase int

const (
	PhaseDisconnected    ConnectionPhase = iota // no session
	PhasePendingApproval                        // app token issued, waiting for the user on the box
	PhaseAuthenticated                          // session open, target receiver not verified
	PhaseReceiverReady                          // session open and target receiver usable
)

func (p ConnectionPhase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhasePendingApproval:
		return "pending_approval"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseReceiverReady:
		return "receiver_ready"
	default:
		return "unknown"
	}
}

// MarshalText lets the phase travel as its name in JSON and YAML.
func (p ConnectionPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ApprovalStatus is the three-way outcome of polling a pending app token.
type ApprovalStatus int

const (
	ApprovalPending ApprovalStatus = iota
	ApprovalGranted
	ApprovalRejected
)

func (s ApprovalStatus) String() string {
	switch s {
	case ApprovalPending:
		return "pending"
	case ApprovalGranted:
		return "granted"
	default:
		return "rejected"
	}
}

// ParseApprovalStatus maps the wire status string. Anything but pending/granted
// (unknown, timeout, denied, empty) is a rejection.
func ParseApprovalStatus(status string) ApprovalStatus {
	switch status {
	case "pending":
		return ApprovalPending
	case "granted":
		return ApprovalGranted
	default:
		return ApprovalRejected
	}
}

// TokenValidity is the outcome of re-checking a stored app token.
type TokenValidity int

const (
	TokenInvalid TokenValidity = iota
	TokenIndeterminate
	TokenValid
)

func (v TokenValidity) String() string {
	switch v {
	case TokenValid:
		return "valid"
	case TokenIndeterminate:
		return "indeterminate"
	default:
		return "invalid"
	}
}
