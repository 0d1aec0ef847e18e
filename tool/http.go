package tool

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Timeouts bounds every call to the box so a silent device never blocks the caller.
type Timeouts struct {
	Connect time.Duration `yaml:"connect"`
	Write   time.Duration `yaml:"write"`
	Read    time.Duration `yaml:"read"`
}

// DefaultTimeouts is 5s each for connect, write and read.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect: 5 * time.Second,
		Write:   5 * time.Second,
		Read:    5 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	if t.Connect <= 0 {
		t.Connect = def.Connect
	}
	if t.Write <= 0 {
		t.Write = def.Write
	}
	if t.Read <= 0 {
		t.Read = def.Read
	}
	return t
}

// Total is the whole-request budget.
func (t Timeouts) Total() time.Duration {
	t = t.withDefaults()
	return t.Connect + t.Write + t.Read
}

// NewHTTPClient creates the client used for every box call.
// The box serves HTTPS with its own CA, so certificate verification is skipped in HTTPS mode.
func NewHTTPClient(timeouts Timeouts) *http.Client {
	timeouts = timeouts.withDefaults()
	dialer := &net.Dialer{Timeout: timeouts.Connect}
	return &http.Client{
		Timeout: timeouts.Total(),
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
			TLSHandshakeTimeout:   timeouts.Connect,
			ResponseHeaderTimeout: timeouts.Write + timeouts.Read,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       30 * time.Second,
		},
	}
}
