package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/moyoez/fbxcast/tool"
	"github.com/moyoez/fbxcast/types"
)

// maxBodySize caps what is read from the box; no envelope comes near it.
const maxBodySize = 1 << 20

// Client is the JSON-over-HTTP call boundary to the box.
// Every network or decode failure leaves here as a typed *types.BoxError.
type Client struct {
	http *http.Client
}

// NewClient wraps an HTTP client. A nil client gets tool.NewHTTPClient defaults.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = tool.NewHTTPClient(tool.DefaultTimeouts())
	}
	return &Client{http: httpClient}
}

// Request describes one call.
type Request struct {
	Op           string // operation name used in errors and logs
	Method       string
	URL          string
	SessionToken string // sent as X-Fbx-App-Auth when set
	Body         any    // encoded as JSON when non-nil
	EmptyBody    bool   // send an empty body even for POST
}

// Do sends req and decodes the response into out.
// A transport failure is ErrUnreachable, an undecodable body is ErrParseAmbiguous.
// The envelope's success flag is left to the caller.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil && !req.EmptyBody {
		payload, err := sonic.Marshal(req.Body)
		if err != nil {
			return types.ParseAmbiguous(req.Op, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return types.Unreachable(req.Op, fmt.Errorf("create request: %w", err))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.SessionToken != "" {
		httpReq.Header.Set(types.SessionTokenHeader, req.SessionToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return types.Unreachable(req.Op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return types.Unreachable(req.Op, fmt.Errorf("read response: %w", err))
	}
	tool.DefaultLogger.Debugf("%s %s -> %s (%d bytes)", req.Method, req.URL, resp.Status, len(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return types.ParseAmbiguous(req.Op, fmt.Errorf("empty response body (%s)", resp.Status))
	}
	// The box answers errors such as auth_required with a 4xx status and a regular envelope,
	// so the body is decoded whatever the status code.
	if err := sonic.Unmarshal(raw, out); err != nil {
		tool.DefaultLogger.Debugf("Undecodable body from %s: %s", req.URL, tool.Snippet(raw, 256))
		return types.ParseAmbiguous(req.Op, fmt.Errorf("decode response (%s): %w", resp.Status, err))
	}
	return nil
}

// Get is Do with GET.
func (c *Client) Get(ctx context.Context, op, url, sessionToken string, out any) error {
	return c.Do(ctx, Request{Op: op, Method: http.MethodGet, URL: url, SessionToken: sessionToken}, out)
}

// Post is Do with POST and a JSON body.
func (c *Client) Post(ctx context.Context, op, url, sessionToken string, body, out any) error {
	return c.Do(ctx, Request{Op: op, Method: http.MethodPost, URL: url, SessionToken: sessionToken, Body: body}, out)
}
