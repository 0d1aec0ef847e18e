package discovery

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/mdns"

	"github.com/moyoez/fbxcast/types"
)

const descriptorJSON = `{"uid":"23b86ec8091013d668829fe12791fdab","device_name":"Freebox Server","api_version":"8.0","api_base_url":"/api/","device_type":"FreeboxServer1,1","api_domain":"abcd.fbxos.fr","https_available":true,"https_port":3615,"box_model":"fbxgw-r1/full"}`

func hostOf(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestResolveParsesDescriptor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_version" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(descriptorJSON))
	}))
	defer ts.Close()

	desc, err := NewResolver(hostOf(ts), nil).Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if desc.APIVersion != "8.0" || desc.APIBaseURL != "/api/" || desc.FriendlyName != "Freebox Server" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if !desc.HTTPSAvailable || desc.HTTPSPort != 3615 {
		t.Fatalf("https fields not parsed: %+v", desc)
	}
}

func TestResolveFailuresAreUnreachable(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer garbage.Close()

	incomplete := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uid":"x"}`))
	}))
	defer incomplete.Close()

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedHost := hostOf(closed)
	closed.Close()

	for name, host := range map[string]string{
		"garbage":    hostOf(garbage),
		"incomplete": hostOf(incomplete),
		"not found":  hostOf(notFound),
		"closed":     closedHost,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewResolver(host, nil).Resolve(context.Background())
			if !errors.Is(err, types.ErrUnreachable) {
				t.Fatalf("expected ErrUnreachable, got %v", err)
			}
		})
	}
}

func TestResolveIssuesSingleRequest(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, _ = NewResolver(hostOf(ts), nil).Resolve(context.Background())
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestParseTXTRecords(t *testing.T) {
	desc := ParseTXTRecords([]string{
		"api_version=8.0",
		"api_base_url=/api/",
		"uid=abc",
		"device_type=FreeboxServer7,1",
		"https_available=1",
		"https_port=3615",
		"api_domain=abcd.fbxos.fr",
		"garbage",
	})
	if desc.APIVersion != "8.0" || desc.APIBaseURL != "/api/" || desc.UID != "abc" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if !desc.HTTPSAvailable || desc.HTTPSPort != 3615 {
		t.Fatalf("https fields not parsed: %+v", desc)
	}
}

func TestAnnouncementFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Freebox Server._fbx-api._tcp.local.",
		AddrV4:     net.ParseIP("192.168.1.254"),
		Port:       80,
		InfoFields: []string{"api_version=8.0", "api_base_url=/api/"},
	}
	ann, err := announcementFromEntry(entry)
	if err != nil {
		t.Fatalf("announcementFromEntry: %v", err)
	}
	if ann.Host != "192.168.1.254" {
		t.Fatalf("unexpected host %q", ann.Host)
	}
	if ann.Descriptor.FriendlyName != "Freebox Server" {
		t.Fatalf("unexpected name %q", ann.Descriptor.FriendlyName)
	}

	entry.Port = 8080
	ann, err = announcementFromEntry(entry)
	if err != nil {
		t.Fatal(err)
	}
	if ann.Host != "192.168.1.254:8080" {
		t.Fatalf("expected port in host, got %q", ann.Host)
	}

	entry.InfoFields = nil
	if _, err := announcementFromEntry(entry); err == nil {
		t.Fatal("expected incomplete TXT records to be rejected")
	}
}
