package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/version"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// BaseClient provides the HTTP plumbing shared by the API endpoints:
// URL building, JSON encoding, bearer auth and status classification.
type BaseClient struct {
	httpClient    *http.Client
	apiURL        string
	token         string
	userAgent     string
	customHeaders map[string]string
}

// NewBaseClient creates a BaseClient. A nil httpClient uses http.DefaultClient.
func NewBaseClient(httpClient *http.Client, apiURL, token string) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BaseClient{
		httpClient:    httpClient,
		apiURL:        apiURL,
		token:         token,
		userAgent:     version.UserAgent(),
		customHeaders: make(map[string]string),
	}
}

// SetCustomHeader sets a header sent with every request.
func (b *BaseClient) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// NewRequest creates a request for endpoint, a path relative to the API base
// such as "sites/42/menus". A non-nil body is JSON encoded.
func (b *BaseClient) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, errors.InternalError("failed to marshal request body").
				WithCause(marshalErr).
				Build()
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	req.Header.Set("User-Agent", b.userAgent)

	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}

	return req, nil
}

// DoRequest executes req and decodes a JSON response into result when
// result is non-nil.
func (b *BaseClient) DoRequest(req *http.Request, result any) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError("failed to execute API request").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(req, resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.RemoteError("failed to decode response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}

	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	builder := errors.RemoteError(fmt.Sprintf("API error: %s", resp.Status))
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		builder = errors.AuthError(fmt.Sprintf("API rejected credentials: %s", resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		builder = errors.NotFoundError(fmt.Sprintf("API resource not found: %s", resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests:
		builder = builder.RateLimit()
	case resp.StatusCode >= 500:
		builder = builder.Retryable()
	}

	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", bodyStr).
		Build()
}
