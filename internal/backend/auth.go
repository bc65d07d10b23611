package backend

import (
	"context"
	"net/http"

	"subsync/cli/internal/errors"
)

// Authenticate calls POST /api/collections/users/auth-with-password.
// On success the backend issues a bearer token alongside the identity record.
// Bad credentials surface as a typed auth failure, never a raw 400.
func (h *HTTP) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{
		"identity": email,
		"password": password,
	}
	var out AuthResult
	err := h.doJSON(ctx, http.MethodPost, "/api/collections/"+usersCollection+"/auth-with-password", "", body, &out)
	if err != nil {
		// The auth route reports bad credentials as a generic 400.
		if errors.KindOf(err) == errors.ValidationFailed {
			return nil, errors.Wrap(errors.AuthFailed, "invalid email or password", err)
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New(errors.AuthFailed, "backend returned no token")
	}
	return &out, nil
}

// CreateAccount calls POST /api/collections/users/records to create a new
// user record. Field-level rejections surface as validation failures.
func (h *HTTP) CreateAccount(ctx context.Context, acct NewAccount) (*Identity, error) {
	var out Identity
	if err := h.doJSON(ctx, http.MethodPost, "/api/collections/"+usersCollection+"/records", "", acct, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAuth calls POST /api/collections/users/auth-refresh with the current
// token. The backend validates the token and returns a renewed one together
// with the up-to-date identity record.
func (h *HTTP) RefreshAuth(ctx context.Context, token string) (*AuthResult, error) {
	var out AuthResult
	err := h.doJSON(ctx, http.MethodPost, "/api/collections/"+usersCollection+"/auth-refresh", token, nil, &out)
	if err != nil {
		if errors.KindOf(err) == errors.NotFound || errors.KindOf(err) == errors.ValidationFailed {
			return nil, errors.Wrap(errors.AuthFailed, "token no longer valid", err)
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New(errors.AuthFailed, "backend returned no token")
	}
	return &out, nil
}
