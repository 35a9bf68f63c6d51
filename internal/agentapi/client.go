// Package agentapi is the HTTP client for the upstream agent platform:
// file upload plus agent invocation. The invocation response is decoded
// as a loose envelope because its shape varies by agent and model; the
// extractor in internal/agent normalizes it.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"brandify/internal/agent"
	"brandify/internal/transform"
)

// Store reads staged asset bytes by storage key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

type Options struct {
	BaseURL    string
	APIKey     string
	Store      Store
	HTTPClient *http.Client
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	store      Store
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
		store:      opts.Store,
	}
}

type uploadResponse struct {
	Success  bool     `json:"success"`
	AssetIDs []string `json:"asset_ids"`
	Error    string   `json:"error"`
}

// Upload pushes the staged source image to the platform and returns the
// platform's asset identifiers.
func (c *Client) Upload(ctx context.Context, src transform.SourceAsset) (transform.UploadResult, error) {
	if c == nil || c.baseURL == "" {
		return transform.UploadResult{}, errors.New("agentapi: client not configured")
	}
	if c.token == "" {
		return transform.UploadResult{}, errors.New("agentapi: API key is missing")
	}
	data, err := c.store.Read(ctx, src.StorageKey)
	if err != nil {
		return transform.UploadResult{}, fmt.Errorf("agentapi: read staged asset: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", src.Name)
	if err != nil {
		return transform.UploadResult{}, err
	}
	if _, err := part.Write(data); err != nil {
		return transform.UploadResult{}, err
	}
	if err := form.Close(); err != nil {
		return transform.UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files/upload", &body)
	if err != nil {
		return transform.UploadResult{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transform.UploadResult{}, err
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return transform.UploadResult{}, fmt.Errorf("agentapi: upload http %d", resp.StatusCode)
		}
		return transform.UploadResult{}, err
	}
	return transform.UploadResult{Success: out.Success, AssetIDs: out.AssetIDs, Error: out.Error}, nil
}

type invokeRequest struct {
	Message string   `json:"message"`
	Assets  []string `json:"assets,omitempty"`
}

// Invoke sends the transform message to the given agent and returns the
// raw response envelope, whatever its shape.
func (c *Client) Invoke(ctx context.Context, message, agentID string, opts transform.InvokeOptions) (agent.Envelope, error) {
	if c == nil || c.baseURL == "" {
		return nil, errors.New("agentapi: client not configured")
	}
	if c.token == "" {
		return nil, errors.New("agentapi: API key is missing")
	}
	if strings.TrimSpace(agentID) == "" {
		return nil, errors.New("agentapi: agent id is required")
	}
	payload, err := json.Marshal(invokeRequest{Message: message, Assets: opts.Assets})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v1/agents/%s/invoke", c.baseURL, agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env agent.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("agentapi: invoke http %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("agentapi: decode envelope: %w", err)
	}
	return env, nil
}

var (
	_ transform.Uploader = (*Client)(nil)
	_ transform.Invoker  = (*Client)(nil)
)
