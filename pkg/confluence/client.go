// Package confluence provides a thin client for the Confluence Data Center
// REST API (Data Center/Server 6.x and later), plus the storage-format
// conversion needed to author pages in markdown.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

// Config holds connection settings for a Confluence Data Center instance
type Config struct {
	BaseURL  string
	Token    string // Personal access token (preferred)
	Username string
	Password string
}

// ConfigFromEnv builds a Config from CONFLUENCE_BASE_URL plus either
// CONFLUENCE_PAT or CONFLUENCE_USERNAME/CONFLUENCE_PASSWORD.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:  strings.TrimRight(os.Getenv("CONFLUENCE_BASE_URL"), "/"),
		Token:    os.Getenv("CONFLUENCE_PAT"),
		Username: os.Getenv("CONFLUENCE_USERNAME"),
		Password: os.Getenv("CONFLUENCE_PASSWORD"),
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("CONFLUENCE_BASE_URL environment variable required")
	}
	if cfg.Token == "" && (cfg.Username == "" || cfg.Password == "") {
		return Config{}, errors.New("set CONFLUENCE_PAT or both CONFLUENCE_USERNAME and CONFLUENCE_PASSWORD")
	}

	return cfg, nil
}

// Client is a Confluence Data Center API client
type Client struct {
	cfg        Config
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a Confluence client for the configured instance
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		apiURL:     cfg.BaseURL + "/rest/api",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// BaseURL returns the instance base URL, for building page links.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// APIError is a non-2xx response from the Confluence API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confluence API error (status %d): %s", e.StatusCode, e.Message)
}

func isRetryableError(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	} else {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
	}

	requestURL := c.apiURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, requestURL, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "failed to create request"))
			}

			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			c.authorize(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return errors.Wrapf(err, "request to %s failed", requestURL)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return errors.Wrap(err, "failed to read response body")
			}

			if resp.StatusCode >= 400 {
				return &APIError{
					StatusCode: resp.StatusCode,
					Message:    decodeErrorMessage(data, resp.StatusCode),
				}
			}

			if out == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "failed to decode response"))
			}
			return nil
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func decodeErrorMessage(data []byte, statusCode int) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return http.StatusText(statusCode)
}

// upload posts a file as multipart form data. Confluence requires the
// X-Atlassian-Token header to allow attachment uploads.
func (c *Client) upload(ctx context.Context, endpoint, filePath string, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filePath)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return errors.Wrap(err, "failed to create form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "failed to read attachment content")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed to finalize multipart body")
	}

	requestURL := c.apiURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, &buf)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "no-check")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", requestURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: decodeErrorMessage(data, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "failed to decode response")
}

// ExportPDF downloads a page as PDF through the flyingpdf export action,
// which lives outside the REST API prefix.
func (c *Client) ExportPDF(ctx context.Context, pageID string) ([]byte, error) {
	requestURL := c.cfg.BaseURL + "/spaces/flyingpdf/pdfpageexport.action?pageId=" + url.QueryEscape(pageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", requestURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read PDF content")
	}
	return data, nil
}
