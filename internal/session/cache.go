// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session maintains the local view of the remote authentication state.
// It bridges backend auth operations into a pollable snapshot with an explicit
// change-notification stream, and persists the session across process restarts
// through a pluggable store (OS keychain in production).
//
// The cache is the single source of truth for "who is logged in" on this
// device. Backend errors never escape login/signup/refresh as raw errors;
// they are normalized into Result values or booleans.
package session

import (
	"context"
	"sync"

	"subsync/cli/internal/backend"
)

// State labels the coarse authentication lifecycle.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Snapshot is the current local view of the remote auth state.
// Invariant: Valid == false implies Identity == nil.
type Snapshot struct {
	Valid    bool
	Token    string
	Identity *backend.Identity
}

// Result is the outcome of a login or signup attempt. Operations returning
// Result never fail with a raw error; failures are carried in Message.
type Result struct {
	OK   bool
	User *backend.Identity
	// Created reports that signup created the account record even when the
	// follow-up login failed, so callers can tell "account exists, sign in
	// manually" apart from a failed signup.
	Created bool
	Message string
}

// Cache mirrors the remote auth provider's token/identity state.
// Construct with New; one instance per backend connection.
type Cache struct {
	be    backend.API
	store Store

	mu             sync.RWMutex
	snap           Snapshot
	authenticating bool

	lmu       sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int
}

// New constructs a session cache bound to the given backend and persistence
// store. The persisted session is restored eagerly and synchronously: a
// stored token that is still live (by its own expiry claim) yields an
// authenticated snapshot without any network round trip. A corrupt or
// missing persisted state leaves the cache anonymous rather than erroring.
func New(be backend.API, store Store) *Cache {
	c := &Cache{
		be:        be,
		store:     store,
		listeners: map[int]func(Snapshot){},
	}

	st, ok, err := store.Load()
	if err == nil && ok && st.Token != "" && st.Identity != nil && tokenLive(st.Token) {
		c.snap = Snapshot{Valid: true, Token: st.Token, Identity: st.Identity}
	}
	return c
}

// Login authenticates with the backend using email and password.
// The snapshot is updated before Login returns on success. All backend
// failures (bad credentials, network, unreachable) are normalized into the
// returned Result.
func (c *Cache) Login(ctx context.Context, email, password string) Result {
	c.setAuthenticating(true)
	defer c.setAuthenticating(false)

	res, err := c.be.Authenticate(ctx, email, password)
	if err != nil {
		return Result{Message: err.Error()}
	}
	ident := res.Record
	c.setSnapshot(Snapshot{Valid: true, Token: res.Token, Identity: &ident})
	return Result{OK: true, User: &ident}
}

// Signup creates a new account and immediately logs in with the same
// credentials. When account creation fails no login is attempted. When
// creation succeeds but the follow-up login fails, the Result carries
// Created=true with OK=false: the account exists but no session was
// established.
func (c *Cache) Signup(ctx context.Context, email, password, passwordConfirm, name string) Result {
	c.setAuthenticating(true)
	acct := backend.NewAccount{
		Email:           email,
		Password:        password,
		PasswordConfirm: passwordConfirm,
		Name:            name,
	}
	if _, err := c.be.CreateAccount(ctx, acct); err != nil {
		c.setAuthenticating(false)
		return Result{Message: err.Error()}
	}
	c.setAuthenticating(false)

	r := c.Login(ctx, email, password)
	if !r.OK {
		return Result{Created: true, Message: "account created but sign-in failed: " + r.Message}
	}
	r.Created = true
	return r
}

// Logout clears the local session unconditionally. It is synchronous, never
// fails, and is idempotent. Backend-side token invalidation is the backend's
// responsibility.
func (c *Cache) Logout() {
	c.setSnapshot(Snapshot{})
}

// Refresh asks the backend to validate and renew the current token. It
// returns true when the snapshot was renewed. On any failure the session is
// cleared as a corrective action and false is returned. Refresh never
// returns an error and is a no-op on an anonymous session.
func (c *Cache) Refresh(ctx context.Context) bool {
	snap := c.Snapshot()
	if !snap.Valid {
		return false
	}
	res, err := c.be.RefreshAuth(ctx, snap.Token)
	if err != nil {
		c.Logout()
		return false
	}
	ident := res.Record
	c.setSnapshot(Snapshot{Valid: true, Token: res.Token, Identity: &ident})
	return true
}

// Subscribe registers fn to be called with every snapshot replacement.
// The returned function unsubscribes; it is safe to call more than once.
// fn runs outside the cache's lock and must not block for long.
func (c *Cache) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

// Snapshot returns a copy of the current auth snapshot.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// IsLoggedIn reports whether a valid session with an identity is present.
func (c *Cache) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Valid && c.snap.Identity != nil
}

// Token returns the current bearer token, empty when anonymous.
func (c *Cache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Token
}

// User returns the current identity record, nil when anonymous.
func (c *Cache) User() *backend.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Identity
}

// CurrentState reports the coarse lifecycle state.
func (c *Cache) CurrentState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.authenticating:
		return StateAuthenticating
	case c.snap.Valid && c.snap.Identity != nil:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

func (c *Cache) setAuthenticating(v bool) {
	c.mu.Lock()
	c.authenticating = v
	c.mu.Unlock()
}

// setSnapshot replaces the snapshot, persists it, and notifies subscribers.
// The invalid-implies-no-identity invariant is enforced here so no caller
// can publish an inconsistent snapshot.
func (c *Cache) setSnapshot(snap Snapshot) {
	if !snap.Valid {
		snap.Identity = nil
		snap.Token = ""
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	// Persistence is best-effort; a read-only keychain must not break login.
	if snap.Valid {
		_ = c.store.Save(PersistedState{Token: snap.Token, Identity: snap.Identity})
	} else {
		_ = c.store.Clear()
	}

	c.lmu.Lock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
