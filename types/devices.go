package types

import "strings"

/*
 Bootstrap descriptor example (GET http://mafreebox.freebox.fr/api_version)

{
  "uid": "23b86ec8091013d668829fe12791fdab",
  "device_name": "Freebox Server",
  "api_version": "8.0",
  "api_base_url": "/api/",
  "device_type": "FreeboxServer1,1",
  "api_domain": "abcdefgh.fbxos.fr",
  "https_available": true,
  "https_port": 3615
}

*/

// DeviceDescriptor identifies the box and the API base URL every later call must use.
// It is replaced wholesale on a fresh discovery, never patched field by field.
type DeviceDescriptor struct {
	UID            string `json:"uid"`
	FriendlyName   string `json:"device_name"`
	APIVersion     string `json:"api_version"`  // e.g. "8.0", only the major part is used in URLs
	APIBaseURL     string `json:"api_base_url"` // e.g. "/api/"
	DeviceType     string `json:"device_type"`
	APIDomain      string `json:"api_domain"`
	HTTPSAvailable bool   `json:"https_available"`
	HTTPSPort      int    `json:"https_port"`
}

// MajorVersion returns the api_version component before the first dot.
func (d *DeviceDescriptor) MajorVersion() string {
	if d == nil {
		return ""
	}
	major, _, _ := strings.Cut(d.APIVersion, ".")
	return major
}

// Complete reports whether the descriptor carries enough to build endpoint URLs.
func (d *DeviceDescriptor) Complete() bool {
	return d != nil && d.APIBaseURL != "" && d.MajorVersion() != ""
}

// AppIdentity is the fixed application identity sent when requesting an app token.
type AppIdentity struct {
	AppID      string `json:"app_id" yaml:"app_id"`
	AppName    string `json:"app_name" yaml:"app_name"`
	AppVersion string `json:"app_version" yaml:"app_version"`
	DeviceName string `json:"device_name" yaml:"device_name"`
}

// DefaultAppIdentity matches the identity the box already knows this application by.
func DefaultAppIdentity() AppIdentity {
	return AppIdentity{
		AppID:      "ani",
		AppName:    "Aniyomi",
		AppVersion: "1.0",
		DeviceName: "Smartphone",
	}
}

// AppCredential is the long-lived pairing secret plus the id used to poll its approval.
type AppCredential struct {
	AppToken string `json:"app_token" yaml:"app_token"`
	TrackID  int    `json:"track_id" yaml:"track_id"`
}

// Empty reports whether no app token is held.
func (c AppCredential) Empty() bool {
	return c.AppToken == ""
}

// SessionCredential is the short-lived token sent in the X-Fbx-App-Auth header.
type SessionCredential struct {
	SessionToken string `json:"session_token"`
}
