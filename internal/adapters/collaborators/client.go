package collaborators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/domain"
)

var errNotCached = errors.New("not cached")

// jsonClient is the shared transport for the collaborator services. Every
// call gets its own timeout on top of the caller's context.
type jsonClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

func newJSONClient(baseURL string, httpClient *http.Client, timeout time.Duration) jsonClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return jsonClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient, timeout: timeout}
}

func (c jsonClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrDependencyUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return errNotCached
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s returned %d", domain.ErrDependencyUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
