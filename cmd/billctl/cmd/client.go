package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiClient is a thin wrapper around the billing HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) (*apiClient, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", base)
	}
	return &apiClient{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{Timeout: timeout},
	}, nil
}

type apiError struct {
	Status  int
	Type    string
	Message string
	Fields  []string
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Type, e.Message)
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, "; ") + ")"
	}
	return msg
}

func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func decodeAPIError(status int, data []byte) error {
	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Errors  []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error.Type == "" {
		return &apiError{Status: status, Type: "unknown", Message: strings.TrimSpace(string(data))}
	}
	apiErr := &apiError{Status: status, Type: payload.Error.Type, Message: payload.Error.Message}
	for _, f := range payload.Error.Errors {
		apiErr.Fields = append(apiErr.Fields, f.Field+": "+f.Message)
	}
	return apiErr
}

// isAPIError reports whether err carries the given API error type.
func isAPIError(err error, typ string) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Type == typ
}
