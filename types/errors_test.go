package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestBoxErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Rejected("open session", "invalid_token", "bad"))
	if !errors.Is(err, ErrProtocolRejected) {
		t.Fatalf("expected ErrProtocolRejected, got %v", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Fatal("rejection must not match ErrUnreachable")
	}
	be, ok := AsBoxError(err)
	if !ok {
		t.Fatal("expected a BoxError")
	}
	if be.Code != "invalid_token" || be.Msg != "bad" {
		t.Fatalf("unexpected code/msg: %q %q", be.Code, be.Msg)
	}
}

func TestUnreachableUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unreachable("resolve", cause)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatal("expected ErrUnreachable")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected the cause to be reachable through Unwrap")
	}
}

func TestParseApprovalStatus(t *testing.T) {
	cases := map[string]ApprovalStatus{
		"pending": ApprovalPending,
		"granted": ApprovalGranted,
		"denied":  ApprovalRejected,
		"timeout": ApprovalRejected,
		"unknown": ApprovalRejected,
		"":        ApprovalRejected,
	}
	for in, want := range cases {
		if got := ParseApprovalStatus(in); got != want {
			t.Errorf("ParseApprovalStatus(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMajorVersion(t *testing.T) {
	cases := []struct {
		version string
		want    string
	}{
		{"8.0", "8"},
		{"10.2.1", "10"},
		{"4", "4"},
		{"", ""},
	}
	for _, tc := range cases {
		d := DeviceDescriptor{APIVersion: tc.version, APIBaseURL: "/api/"}
		if got := d.MajorVersion(); got != tc.want {
			t.Errorf("MajorVersion(%q) = %q, want %q", tc.version, got, tc.want)
		}
	}
	var nilDesc *DeviceDescriptor
	if nilDesc.Complete() {
		t.Fatal("nil descriptor must not be complete")
	}
}
