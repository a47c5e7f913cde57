// Package remote is the HTTP client for the optional enhancement service,
// a drop-in alternative to the local pipeline backed by a super-resolution
// model. The engine has no hard dependency on it; callers fall back to the
// local pipeline when the service is unreachable.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sehyun-dev/pixelengine/pkg/codec"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Client talks to the enhancement service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// EnhanceRequest is the wire request: a base64-encoded PNG and the target
// scale factor.
type EnhanceRequest struct {
	Image string  `json:"image"`
	Scale float64 `json:"scale"`
	Model string  `json:"model,omitempty"`
}

// EnhanceResponse is the wire response.
type EnhanceResponse struct {
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewClient creates a client for the given server URL.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8090"
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Enhance sends the buffer to the service and decodes the enhanced result.
// Super-resolution on CPU can take minutes, so a generous timeout is added
// when the context carries no deadline of its own.
func (c *Client) Enhance(ctx context.Context, buf *pixel.Buffer, scale float64) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if scale <= 1.0 || scale > 4.0 {
		return nil, &pixel.ConfigurationError{
			Option: "scale",
			Reason: fmt.Sprintf("must be in (1.0, 4.0], got %g", scale),
		}
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	pngData, err := codec.EncodePNG(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}

	req := EnhanceRequest{
		Image: base64.StdEncoding.EncodeToString(pngData),
		Scale: scale,
	}

	respBody, err := c.sendRequest(ctx, "/v1/enhance", req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	var resp EnhanceResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}
	if resp.Image == "" {
		return nil, fmt.Errorf("empty image in response")
	}

	imgData, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	out, err := codec.Decode(imgData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode enhanced image: %v", err)
	}
	if resp.Width > 0 && (out.Width != resp.Width || out.Height != resp.Height) {
		return nil, fmt.Errorf("server reported %dx%d but image is %dx%d",
			resp.Width, resp.Height, out.Width, out.Height)
	}
	return out, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
