package discovery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// Resolver fetches the device descriptor from the box's fixed bootstrap address.
type Resolver struct {
	host   string
	client *http.Client
}

// NewResolver builds a resolver for host. An empty host means mafreebox.freebox.fr.
func NewResolver(host string, client *http.Client) *Resolver {
	if host == "" {
		host = tool.DefaultBoxHost
	}
	if client == nil {
		client = tool.NewHTTPClient(tool.DefaultTimeouts())
	}
	return &Resolver{host: host, client: client}
}

// Host returns the bootstrap host.
func (r *Resolver) Host() string {
	return r.host
}

// Resolve issues a single GET /api_version and parses the descriptor.
// It never retries; every failure, including a malformed descriptor, is ErrUnreachable.
func (r *Resolver) Resolve(ctx context.Context) (types.DeviceDescriptor, error) {
	const op = "resolve descriptor"
	url := tool.BuildBootstrapURL(r.host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.DeviceDescriptor{}, types.Unreachable(op, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		tool.DefaultLogger.Debugf("Error fetching box descriptor from %s: %v", url, err)
		return types.DeviceDescriptor{}, types.Unreachable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.DeviceDescriptor{}, types.Unreachable(op, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var desc types.DeviceDescriptor
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return types.DeviceDescriptor{}, types.Unreachable(op, fmt.Errorf("parse descriptor: %w", err))
	}
	if !desc.Complete() {
		return types.DeviceDescriptor{}, types.Unreachable(op, fmt.Errorf("descriptor lacks api_base_url or api_version"))
	}
	tool.DefaultLogger.Infof("Found box %s (%s), API v%s at %s", desc.FriendlyName, desc.DeviceType, desc.APIVersion, desc.APIBaseURL)
	return desc, nil
}
