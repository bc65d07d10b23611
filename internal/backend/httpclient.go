package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subsync/cli/internal/errors"
)

// usersCollection is the auth collection holding identity records.
const usersCollection = "users"

// HTTP implements API over the backend's REST endpoints.
// It provides methods for authentication, account management, and
// record-collection queries.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://api.subsync.dev")
	baseURL string
	// client is the underlying HTTP client with configured timeout
	client *http.Client
}

// newHTTP creates a new HTTP client with the given base URL.
// It configures a 10-second timeout for all requests.
func newHTTP(baseURL string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Health calls GET /api/health and returns the status message when available.
// No authentication required. This can be used to check connectivity to the backend service.
func (h *HTTP) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.NetworkFailed, "health check failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "unavailable", nil
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "ok", nil
	}
	return out.Message, nil
}

// doJSON issues a request with standard headers and decodes a JSON response
// into out. Non-2xx responses are mapped to typed errors via decodeError.
func (h *HTTP) doJSON(ctx context.Context, method, path, token string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.NetworkFailed, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError is the backend's JSON error envelope.
type apiError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// decodeError maps a non-2xx response to a typed error.
// A 404 whose message names a missing collection becomes MissingCollection;
// any other 404 is NotFound. 401/403 map to AuthFailed and 400 to
// ValidationFailed carrying the first field-level detail when present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	_ = json.Unmarshal(raw, &ae)
	msg := strings.TrimSpace(ae.Message)
	if msg == "" {
		msg = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		if strings.Contains(strings.ToLower(msg), "missing collection") {
			return errors.New(errors.MissingCollection, msg)
		}
		return errors.New(errors.NotFound, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.New(errors.AuthFailed, msg)
	case http.StatusBadRequest:
		if detail := firstFieldError(ae.Data); detail != "" {
			msg = msg + ": " + detail
		}
		return errors.New(errors.ValidationFailed, msg)
	default:
		return errors.New(errors.NetworkFailed, msg)
	}
}

// firstFieldError extracts a single field-level validation message from the
// error envelope's data section, e.g. {"email": {"code": ..., "message": ...}}.
func firstFieldError(data map[string]any) string {
	for field, v := range data {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if fm, ok := m["message"].(string); ok && fm != "" {
			return field + ": " + fm
		}
	}
	return ""
}
