package cloud

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SyncError represents a rejected request to the sync API.
type SyncError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("cloud %s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *SyncError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient is a real cloud client that communicates with the Cutroom SaaS.
// Project documents travel as opaque JSON through the sync endpoints.
type HTTPClient struct {
	baseURL    string
	token      string
	orgSlug    string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token, orgSlug string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		orgSlug: orgSlug,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Auth() AuthService {
	return &tokenAuth{client: c}
}

func (c *HTTPClient) Sync() SyncService {
	return c
}

func (c *HTTPClient) RegisterDevice(deviceID string) error {
	c.deviceID = deviceID
	c.logger.Info("cloud http: device registered for sync", "device_id", deviceID)
	return nil
}

func (c *HTTPClient) PushDocument(ctx context.Context, payload DocumentPushPayload) (*DocumentPushResult, error) {
	if payload.DeviceID == "" {
		payload.DeviceID = c.deviceID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/sync/documents", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	c.logger.Info("pushing document to cloud",
		"url", url,
		"host", req.Host,
		"project_id", payload.ProjectID,
		"body_bytes", len(body),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SyncError{Op: "push", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result DocumentPushResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal push response: %w", err)
	}

	c.logger.Info("document push acknowledged",
		"project_id", result.ProjectID,
		"revision", result.Revision,
	)

	return &result, nil
}

func (c *HTTPClient) PullDocument(ctx context.Context, projectID string) (*RemoteDocument, error) {
	url := fmt.Sprintf("%s/api/sync/documents/%s", c.baseURL, projectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	// A project that was never pushed has no remote copy. Not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SyncError{Op: "pull", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var doc RemoteDocument
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &doc, nil
}

func (c *HTTPClient) ListRemote(ctx context.Context) ([]RemoteProject, error) {
	url := fmt.Sprintf("%s/api/sync/documents", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 65536))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SyncError{Op: "list", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var wrapper struct {
		Projects []RemoteProject `json:"projects"`
	}
	if err := json.Unmarshal(respBody, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal project listing: %w", err)
	}

	return wrapper.Projects, nil
}

// decorate applies the auth and tenancy headers shared by every sync call.
// The SaaS resolves the org from the Host header subdomain.
func (c *HTTPClient) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Cutroom-Request-Id", generateRequestID())
	if c.deviceID != "" {
		req.Header.Set("X-Cutroom-Device-Id", c.deviceID)
	}
	if c.orgSlug != "" {
		req.Host = c.orgSlug + ".app.cutroom.local"
	}
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}

// tokenAuth exposes the statically configured token through the
// AuthService surface.
type tokenAuth struct {
	client *HTTPClient
}

func (a *tokenAuth) SignIn(token string) error {
	a.client.token = token
	return nil
}

func (a *tokenAuth) SignOut() error {
	a.client.token = ""
	return nil
}

func (a *tokenAuth) IsAuthenticated() bool {
	return a.client.token != ""
}

func (a *tokenAuth) AccessToken() string {
	return a.client.token
}
