// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the Subsync backend service.
// It defines the API contract for authentication, account creation, token refresh, and
// record-collection queries. The package includes both interface definitions and an
// HTTP-based implementation over the backend's REST surface.
package backend

import (
	"context"
	"encoding/json"
)

// API defines backend operations the client depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// Health checks connectivity and returns the backend status message.
	// No authentication required.
	Health(ctx context.Context) (string, error)
	// Authenticate performs password authentication and returns the issued
	// token together with the authenticated identity record.
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
	// CreateAccount creates a new user record. It does not authenticate;
	// callers wanting a session must Authenticate afterwards.
	CreateAccount(ctx context.Context, acct NewAccount) (*Identity, error)
	// RefreshAuth validates the given token with the backend and returns a
	// renewed token plus the current identity record.
	RefreshAuth(ctx context.Context, token string) (*AuthResult, error)
	// ListRecords returns all records of a collection matching the query,
	// following server-side pagination to exhaustion.
	ListRecords(ctx context.Context, token, collection string, q Query) ([]json.RawMessage, error)
	// FirstMatching returns the first record of a collection matching the
	// query, honoring the query's sort order. A typed not-found error is
	// returned when nothing matches.
	FirstMatching(ctx context.Context, token, collection string, q Query) (json.RawMessage, error)
}

// Query carries filter and sort expressions for record-collection queries.
// Expressions use the backend's filter syntax verbatim.
type Query struct {
	Filter string
	Sort   string
}

// AuthResult is the outcome of a successful authentication or token refresh.
type AuthResult struct {
	Token  string   `json:"token"`
	Record Identity `json:"record"`
}

// NewAccount holds the fields for account creation.
type NewAccount struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Name            string `json:"name,omitempty"`
}

// Identity is the backend-assigned user record. Known fields are promoted;
// everything else the backend sends is retained in Meta.
type Identity struct {
	ID      string
	Email   string
	Name    string
	Created string
	Updated string
	Meta    map[string]any
}

// UnmarshalJSON decodes an identity record, promoting well-known fields and
// keeping the remainder as metadata.
func (id *Identity) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id.ID = stringField(raw, "id")
	id.Email = stringField(raw, "email")
	id.Name = stringField(raw, "name")
	id.Created = stringField(raw, "created")
	id.Updated = stringField(raw, "updated")
	for _, k := range []string{"id", "email", "name", "created", "updated"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		id.Meta = raw
	}
	return nil
}

// MarshalJSON re-assembles the identity record including metadata fields.
func (id Identity) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range id.Meta {
		out[k] = v
	}
	out["id"] = id.ID
	out["email"] = id.Email
	out["name"] = id.Name
	out["created"] = id.Created
	out["updated"] = id.Updated
	return json.Marshal(out)
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
