package gitlab

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/redhat-data-and-ai/gitlab-util/internal/config"
	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
	"github.com/redhat-data-and-ai/gitlab-util/internal/logging"
)

const (
	apiPrefix = "/api/v4"
	// Bodies of failed responses are kept for the error message, up to this size
	maxErrorBody = 64 << 10
)

// Client handles GitLab API operations
type Client struct {
	config config.GitLabConfig
	http   *http.Client
}

// createHTTPClient creates an HTTP client with custom TLS configuration
func createHTTPClient(cfg config.GitLabConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	tlsConfig := &tls.Config{}

	// Handle insecure TLS (skip certificate verification)
	if cfg.InsecureTLS {
		tlsConfig.InsecureSkipVerify = true
	}

	// Handle custom CA certificate
	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate from %s: %w", cfg.CACertPath, err)
		}

		caCertPool, err := x509.SystemCertPool()
		if err != nil || caCertPool == nil {
			caCertPool = x509.NewCertPool()
		}
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", cfg.CACertPath)
		}

		tlsConfig.RootCAs = caCertPool
	}

	transport.TLSClientConfig = tlsConfig

	return &http.Client{
		Transport: transport,
	}, nil
}

// NewClient creates a new GitLab API client. The token in cfg is sent as a
// bearer credential on every request.
func NewClient(cfg config.GitLabConfig) (*Client, error) {
	httpClient, err := createHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		config: cfg,
		http:   httpClient,
	}, nil
}

// GetProjectByPath fetches a project by its namespaced path.
// The path is sent as a single URL-encoded segment (group%2Fsubgroup%2Frepo).
func (c *Client) GetProjectByPath(ctx context.Context, path string) (*Project, error) {
	endpoint := c.apiURL("/projects/" + url.PathEscape(path))

	var project Project
	status, err := c.doJSON(ctx, apperrors.OpLookup, http.MethodGet, endpoint, nil, &project)
	if err != nil {
		return nil, err
	}

	if project.ID <= 0 {
		return nil, apperrors.NewDecodeError(apperrors.OpLookup, http.MethodGet, endpoint, status,
			errors.New("project response has no id"))
	}

	logging.Debug("Resolved project %s to id %d", path, project.ID)
	return &project, nil
}

// CreateMergeRequest creates a merge request in the project req.ID
func (c *Client) CreateMergeRequest(ctx context.Context, req CreateMergeRequestRequest) (*MergeRequest, error) {
	endpoint := c.apiURL(fmt.Sprintf("/projects/%d/merge_requests", req.ID))

	var mr MergeRequest
	status, err := c.doJSON(ctx, apperrors.OpSubmit, http.MethodPost, endpoint, req, &mr)
	if err != nil {
		return nil, err
	}

	switch {
	case mr.ID <= 0:
		return nil, apperrors.NewDecodeError(apperrors.OpSubmit, http.MethodPost, endpoint, status,
			errors.New("merge request response has no id"))
	case mr.WebURL == "":
		return nil, apperrors.NewDecodeError(apperrors.OpSubmit, http.MethodPost, endpoint, status,
			errors.New("merge request response has no web_url"))
	}

	logging.Debug("Created merge request %d (!%d) targeting %s", mr.ID, mr.IID, req.TargetBranch)
	return &mr, nil
}

func (c *Client) apiURL(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + apiPrefix + path
}

// doJSON sends one request and decodes a 2xx JSON response into out.
// Every failure comes back as an *apperrors.APIError tagged with op.
func (c *Client) doJSON(ctx context.Context, op apperrors.Operation, method, endpoint string, body, out interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal %s payload: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, apperrors.NewTransportError(op, method, endpoint, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperrors.NewTransportError(op, method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, apperrors.NewStatusError(op, method, endpoint, resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, apperrors.NewDecodeError(op, method, endpoint, resp.StatusCode, err)
	}

	return resp.StatusCode, nil
}
