package types

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is against any error returned by the client.
var (
	ErrUnreachable      = errors.New("box unreachable")
	ErrProtocolRejected = errors.New("box rejected request")
	ErrPrecondition     = errors.New("precondition violated")
	ErrParseAmbiguous   = errors.New("unexpected response shape")
)

// BoxError is a typed failure at the client call boundary.
type BoxError struct {
	Kind error  // one of the Err* kinds above
	Op   string // operation, e.g. "request app token"
	Code string // receiver error_code, when it replied
	Msg  string // receiver msg, when it replied
	Err  error  // underlying cause
}

func (e *BoxError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s: %v: %s (%s)", e.Op, e.Kind, e.Msg, e.Code)
	case e.Msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *BoxError) Is(target error) bool {
	return e != nil && e.Kind == target
}

func (e *BoxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Unreachable wraps a connection-level failure.
func Unreachable(op string, err error) error {
	return &BoxError{Kind: ErrUnreachable, Op: op, Err: err}
}

// Rejected carries the receiver-supplied error_code and msg of a success=false envelope.
func Rejected(op, code, msg string) error {
	return &BoxError{Kind: ErrProtocolRejected, Op: op, Code: code, Msg: msg}
}

// Precondition reports a step invoked out of order.
func Precondition(op, what string) error {
	return &BoxError{Kind: ErrPrecondition, Op: op, Msg: what}
}

// ParseAmbiguous reports a response that did not match the expected shape.
func ParseAmbiguous(op string, err error) error {
	return &BoxError{Kind: ErrParseAmbiguous, Op: op, Err: err}
}

// AsBoxError extracts the receiver error_code and msg, if any.
func AsBoxError(err error) (*BoxError, bool) {
	var be *BoxError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
