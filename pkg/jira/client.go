// Package jira provides a thin client for the Jira Data Center REST API
// (v2, for Data Center/Server compatibility). Authentication uses a
// personal access token or basic auth, taken from the environment the same
// way the skill documentation describes.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

// Config holds connection settings for a Jira Data Center instance
type Config struct {
	BaseURL  string
	Token    string // Personal access token (preferred)
	Username string
	Password string
}

// ConfigFromEnv builds a Config from JIRA_BASE_URL plus either JIRA_PAT or
// JIRA_USERNAME/JIRA_PASSWORD.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:  strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
		Token:    os.Getenv("JIRA_PAT"),
		Username: os.Getenv("JIRA_USERNAME"),
		Password: os.Getenv("JIRA_PASSWORD"),
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("JIRA_BASE_URL environment variable required")
	}
	if cfg.Token == "" && (cfg.Username == "" || cfg.Password == "") {
		return Config{}, errors.New("set JIRA_PAT or both JIRA_USERNAME and JIRA_PASSWORD")
	}

	return cfg, nil
}

// Client is a Jira Data Center API client
type Client struct {
	cfg        Config
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a Jira client for the configured instance
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		apiURL:     cfg.BaseURL + "/rest/api/2",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the instance base URL, for building browse links.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// APIError is a non-2xx response from the Jira API with its decoded message
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API error (status %d): %s", e.StatusCode, e.Message)
}

func isRetryableError(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Transport-level failures are worth another attempt
	return true
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
			if c.cfg.Token != "" {
				req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
			} else {
				req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
			}

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

// decodeErrorMessage extracts the human-readable message out of a Jira
// error body, which carries either errorMessages or a field->message map.
func decodeErrorMessage(data []byte, statusCode int) string {
	var body struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if len(body.ErrorMessages) > 0 {
			return strings.Join(body.ErrorMessages, "; ")
		}
		if len(body.Errors) > 0 {
			parts := make([]string, 0, len(body.Errors))
			for field, message := range body.Errors {
				parts = append(parts, fmt.Sprintf("%s: %s", field, message))
			}
			return strings.Join(parts, "; ")
		}
	}
	return http.StatusText(statusCode)
}
