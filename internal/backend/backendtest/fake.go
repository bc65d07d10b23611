// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backendtest provides an in-memory backend.API implementation for
// tests. Records are plain maps; list and first-match queries honor the
// subset of the filter/sort syntax the client actually issues.
package backendtest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/errors"
)

// Account is a registered test account.
type Account struct {
	Identity backend.Identity
	Password string
}

// Fake is a configurable in-memory backend.
type Fake struct {
	mu sync.Mutex

	accounts map[string]*Account          // keyed by email
	tokens   map[string]string            // token -> email
	records  map[string][]map[string]any  // collection -> records

	// MissingCollections marks collections whose queries fail with the
	// missing-collection condition.
	MissingCollections map[string]bool
	// ListErr forces an error for list queries against a collection.
	ListErr map[string]error
	// AuthenticateErr forces Authenticate to fail when set.
	AuthenticateErr error
	// RefreshErr forces RefreshAuth to fail when set.
	RefreshErr error

	// LastQuery records the most recent query per collection.
	LastQuery map[string]backend.Query

	// QueryHook, when set, runs at the start of every list or first-match
	// query, before any state is touched. Tests use it to block queries.
	QueryHook func(collection string)
}

var _ backend.API = (*Fake)(nil)

// New returns an empty fake backend.
func New() *Fake {
	return &Fake{
		accounts:           map[string]*Account{},
		tokens:             map[string]string{},
		records:            map[string][]map[string]any{},
		MissingCollections: map[string]bool{},
		ListErr:            map[string]error{},
		LastQuery:          map[string]backend.Query{},
	}
}

// AddAccount registers an account and returns its identity.
func (f *Fake) AddAccount(email, password, name string) backend.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := backend.Identity{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
	}
	f.accounts[email] = &Account{Identity: ident, Password: password}
	return ident
}

// AddRecord stores a record in a collection, assigning an id when absent,
// and returns the record id.
func (f *Fake) AddRecord(collection string, fields map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		rec[k] = v
	}
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
		rec["id"] = id
	}
	f.records[collection] = append(f.records[collection], rec)
	return id
}

// SetRecords replaces a collection's records wholesale.
func (f *Fake) SetRecords(collection string, recs []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		rec := make(map[string]any, len(r))
		for k, v := range r {
			rec[k] = v
		}
		out = append(out, rec)
	}
	f.records[collection] = out
}

// IssueToken mints a signed token for email with the given expiry, usable
// for seeding persisted-session stores.
func (f *Fake) IssueToken(email string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": exp.Unix(),
	})
	signed, _ := tok.SignedString([]byte("backendtest"))
	f.mu.Lock()
	f.tokens[signed] = email
	f.mu.Unlock()
	return signed
}

func (f *Fake) Health(ctx context.Context) (string, error) { return "ok", nil }

func (f *Fake) Authenticate(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	f.mu.Lock()
	authErr := f.AuthenticateErr
	acct := f.accounts[email]
	f.mu.Unlock()

	if authErr != nil {
		return nil, authErr
	}
	if acct == nil || acct.Password != password {
		return nil, errors.New(errors.AuthFailed, "invalid email or password")
	}
	token := f.IssueToken(email, time.Now().Add(time.Hour))
	return &backend.AuthResult{Token: token, Record: acct.Identity}, nil
}

func (f *Fake) CreateAccount(ctx context.Context, acct backend.NewAccount) (*backend.Identity, error) {
	if acct.Password != acct.PasswordConfirm {
		return nil, errors.New(errors.ValidationFailed, "passwordConfirm: values don't match")
	}
	f.mu.Lock()
	if _, exists := f.accounts[acct.Email]; exists {
		f.mu.Unlock()
		return nil, errors.New(errors.ValidationFailed, "email: already in use")
	}
	f.mu.Unlock()

	ident := f.AddAccount(acct.Email, acct.Password, acct.Name)
	return &ident, nil
}

func (f *Fake) RefreshAuth(ctx context.Context, token string) (*backend.AuthResult, error) {
	f.mu.Lock()
	refreshErr := f.RefreshErr
	email, ok := f.tokens[token]
	acct := f.accounts[email]
	f.mu.Unlock()

	if refreshErr != nil {
		return nil, refreshErr
	}
	if !ok || acct == nil {
		return nil, errors.New(errors.AuthFailed, "token no longer valid")
	}
	fresh := f.IssueToken(email, time.Now().Add(time.Hour))
	return &backend.AuthResult{Token: fresh, Record: acct.Identity}, nil
}

func (f *Fake) ListRecords(ctx context.Context, token, collection string, q backend.Query) ([]json.RawMessage, error) {
	recs, err := f.query(collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(recs))
	for _, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *Fake) FirstMatching(ctx context.Context, token, collection string, q backend.Query) (json.RawMessage, error) {
	recs, err := f.query(collection, q)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New(errors.NotFound, "no matching record in "+collection)
	}
	return json.Marshal(recs[0])
}

func (f *Fake) query(collection string, q backend.Query) ([]map[string]any, error) {
	if f.QueryHook != nil {
		f.QueryHook(collection)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LastQuery[collection] = q
	if f.MissingCollections[collection] {
		return nil, errors.New(errors.MissingCollection, "Missing collection context")
	}
	if err := f.ListErr[collection]; err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, rec := range f.records[collection] {
		ok, err := matchesFilter(rec, q.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	sortRecords(out, q.Sort)
	return out, nil
}
