package tool

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/moyoez/fbxcast/types"
)

// DefaultBoxHost is the well-known local name of the box.
const DefaultBoxHost = "mafreebox.freebox.fr"

// BuildBootstrapURL builds the unauthenticated discovery URL.
func BuildBootstrapURL(host string) string {
	if host == "" {
		host = DefaultBoxHost
	}
	return fmt.Sprintf("http://%s/api_version", host)
}

// BuildAPIURL builds http://{host}{api_base_url}v{major}/{path}.
// Without a resolved descriptor it fails with ErrPrecondition, never ErrUnreachable.
func BuildAPIURL(host string, desc *types.DeviceDescriptor, path string) (string, error) {
	if !desc.Complete() {
		return "", types.Precondition("build endpoint", "no device descriptor resolved")
	}
	if host == "" {
		host = DefaultBoxHost
	}
	base := desc.APIBaseURL
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("http://%s%sv%s/%s", host, base, desc.MajorVersion(), strings.TrimPrefix(path, "/")), nil
}

// BuildReceiverPath builds the relative path of one AirMedia receiver.
func BuildReceiverPath(name string) string {
	return "airmedia/receivers/" + url.PathEscape(name) + "/"
}
