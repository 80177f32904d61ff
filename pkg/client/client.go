// Package client provides a client for the pcb-lookup HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// DefaultTimeout is the maximum time to wait for a lookup response.
const DefaultTimeout = 5 * time.Second

// remoteSource names the server in SourceErrors raised by the client.
const remoteSource = "api"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Client calls GET /api/data on a pcb-lookup server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("client"),
	}
}

// Lookup fetches the repair record for serial.
// The server's status maps back to apperrors: 400 is ErrSerialRequired, 404 a
// *NotFoundError, and everything else, transport failures included, a *SourceError.
func (c *Client) Lookup(ctx context.Context, serial string) (models.RepairRecord, error) {
	endpoint, err := buildURL(c.baseURL, "api", "data")
	if err != nil {
		return nil, apperrors.NewSourceError(remoteSource, "build url", err)
	}
	endpoint += "?" + url.Values{"serialNumber": []string{serial}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewSourceError(remoteSource, "create request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Lookup request failed",
			zap.String("serial", logging.TruncateValue(serial)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, apperrors.NewSourceError(remoteSource, "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewSourceError(remoteSource, "read response", err)
	}

	c.logger.Debug("Lookup response",
		zap.String("serial", logging.TruncateValue(serial)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch resp.StatusCode {
	case http.StatusOK:
		var rec models.RepairRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, apperrors.NewSourceError(remoteSource, "parse response", err)
		}
		return rec, nil
	case http.StatusBadRequest:
		return nil, apperrors.ErrSerialRequired
	case http.StatusNotFound:
		return nil, &apperrors.NotFoundError{Serial: strings.TrimSpace(serial)}
	default:
		return nil, apperrors.NewSourceError(remoteSource, "lookup", statusError(resp.StatusCode, body))
	}
}

// statusError renders a failure body. The server's envelope is
// {"success":false,"error":...,"message":...}; other bodies are quoted raw.
func statusError(status int, body []byte) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Error != "" || envelope.Message != "") {
		switch {
		case envelope.Error == "":
			return fmt.Errorf("status %d: %s", status, envelope.Message)
		case envelope.Message == "":
			return fmt.Errorf("status %d: %s", status, envelope.Error)
		default:
			return fmt.Errorf("status %d: %s: %s", status, envelope.Error, envelope.Message)
		}
	}
	text := logging.TruncateString(strings.TrimSpace(string(body)), 200)
	if text == "" {
		return errors.New(http.StatusText(status))
	}
	return fmt.Errorf("status %d: %s", status, text)
}

// buildURL constructs a URL by parsing the base and joining path segments.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	segments := append([]string{"/", u.Path}, pathSegments...)
	u.Path = path.Join(segments...)

	return u.String(), nil
}
