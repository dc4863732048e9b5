package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// StatusError is returned for a non-2xx reply from the bridge.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status code %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// transport handles low-level HTTP and authentication
type transport struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func newTransport(baseURL, token string, client *http.Client) *transport {
	return &transport{
		baseURL:    baseURL,
		authToken:  token,
		httpClient: client,
	}
}

func (t *transport) buildURL(path string) (string, error) {
	u, err := url.Parse(t.baseURL + path)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// do sends body as JSON (when not nil) and decodes the reply into out (when
// not nil).
func (t *transport) do(ctx context.Context, method, path string, body, out any) error {
	fullURL, err := t.buildURL(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if t.authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.authToken))
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
