package types

// Capabilities lists the media kinds an AirMedia receiver accepts.
type Capabilities struct {
	Photo  bool `json:"photo"`
	Audio  bool `json:"audio"`
	Video  bool `json:"video"`
	Screen bool `json:"screen"`
}

// Receiver is fetched fresh on every check, presence and password state are volatile.
type Receiver struct {
	Name              string       `json:"name"`
	PasswordProtected bool         `json:"password_protected"`
	Capabilities      Capabilities `json:"capabilities"`
}

// ReceiverAvailability is the result of looking for the configured target receiver.
type ReceiverAvailability int

const (
	ReceiverNotFound ReceiverAvailability = iota
	ReceiverPasswordProtected
	ReceiverFoundAndReady
)

func (a ReceiverAvailability) String() string {
	switch a {
	case ReceiverPasswordProtected:
		return "password_protected"
	case ReceiverFoundAndReady:
		return "ready"
	default:
		return "not_found"
	}
}

// DefaultTargetReceiver is the receiver name of the box's own player.
const DefaultTargetReceiver = "Freebox Player"
