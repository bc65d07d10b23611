// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"subsync/cli/internal/backend/backendtest"
	"subsync/cli/internal/errors"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		be := backendtest.New()
		be.AddAccount("ada@example.com", "hunter22", "Ada")
		store := NewMemoryStore()
		c := New(be, store)

		r := c.Login(ctx, "ada@example.com", "hunter22")
		if !r.OK {
			t.Fatalf("Login failed: %s", r.Message)
		}
		if r.User == nil || r.User.Email != "ada@example.com" {
			t.Errorf("Result.User = %+v, want ada@example.com", r.User)
		}
		if !c.IsLoggedIn() {
			t.Error("IsLoggedIn() = false after successful login")
		}
		if c.Token() == "" {
			t.Error("Token() empty after successful login")
		}
		if got := c.CurrentState(); got != StateAuthenticated {
			t.Errorf("CurrentState() = %q, want %q", got, StateAuthenticated)
		}
		st, ok, err := store.Load()
		if err != nil || !ok {
			t.Fatalf("store.Load() = ok=%v err=%v, want persisted session", ok, err)
		}
		if st.Token != c.Token() {
			t.Error("persisted token does not match cache token")
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		be := backendtest.New()
		be.AddAccount("ada@example.com", "hunter22", "Ada")
		c := New(be, NewMemoryStore())

		r := c.Login(ctx, "ada@example.com", "wrong")
		if r.OK {
			t.Fatal("Login succeeded with wrong password")
		}
		if r.Message == "" {
			t.Error("Result.Message empty on failure")
		}
		if c.IsLoggedIn() || c.Token() != "" || c.User() != nil {
			t.Error("cache not anonymous after failed login")
		}
	})

	t.Run("backend unreachable", func(t *testing.T) {
		be := backendtest.New()
		be.AuthenticateErr = errors.New(errors.NetworkFailed, "connection refused")
		c := New(be, NewMemoryStore())

		r := c.Login(ctx, "ada@example.com", "hunter22")
		if r.OK {
			t.Fatal("Login succeeded against unreachable backend")
		}
		if c.IsLoggedIn() {
			t.Error("IsLoggedIn() = true after network failure")
		}
	})
}

func TestLogoutIsIdempotent(t *testing.T) {
	be := backendtest.New()
	be.AddAccount("ada@example.com", "hunter22", "Ada")
	store := NewMemoryStore()
	c := New(be, store)

	if r := c.Login(context.Background(), "ada@example.com", "hunter22"); !r.OK {
		t.Fatalf("Login failed: %s", r.Message)
	}

	c.Logout()
	c.Logout()

	if c.IsLoggedIn() {
		t.Error("IsLoggedIn() = true after logout")
	}
	if c.Token() != "" || c.User() != nil {
		t.Errorf("Token() = %q, User() = %v after logout, want empty", c.Token(), c.User())
	}
	if got := c.CurrentState(); got != StateAnonymous {
		t.Errorf("CurrentState() = %q, want %q", got, StateAnonymous)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("persisted session survived logout")
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and logs in", func(t *testing.T) {
		be := backendtest.New()
		c := New(be, NewMemoryStore())

		r := c.Signup(ctx, "new@example.com", "sw0rdfish", "sw0rdfish", "Newbie")
		if !r.OK {
			t.Fatalf("Signup failed: %s", r.Message)
		}
		if !r.Created {
			t.Error("Result.Created = false for successful signup")
		}
		if !c.IsLoggedIn() {
			t.Error("IsLoggedIn() = false after signup")
		}
		if u := c.User(); u == nil || u.Email != "new@example.com" {
			t.Errorf("User() = %+v, want new@example.com", u)
		}
	})

	t.Run("rejected by validation", func(t *testing.T) {
		be := backendtest.New()
		c := New(be, NewMemoryStore())

		r := c.Signup(ctx, "new@example.com", "sw0rdfish", "typo", "Newbie")
		if r.OK || r.Created {
			t.Fatalf("Signup = %+v, want failure without Created", r)
		}
		if c.IsLoggedIn() {
			t.Error("IsLoggedIn() = true after rejected signup")
		}
	})

	t.Run("account created but immediate login fails", func(t *testing.T) {
		be := backendtest.New()
		be.AuthenticateErr = errors.New(errors.NetworkFailed, "connection reset")
		c := New(be, NewMemoryStore())

		r := c.Signup(ctx, "new@example.com", "sw0rdfish", "sw0rdfish", "Newbie")
		if r.OK {
			t.Fatal("Signup reported OK despite failed login")
		}
		if !r.Created {
			t.Error("Result.Created = false although the account was created")
		}
		if !strings.Contains(r.Message, "account created") {
			t.Errorf("Result.Message = %q, want partial-success wording", r.Message)
		}
		if c.IsLoggedIn() {
			t.Error("IsLoggedIn() = true without an established session")
		}
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("renews a valid session", func(t *testing.T) {
		be := backendtest.New()
		be.AddAccount("ada@example.com", "hunter22", "Ada")
		c := New(be, NewMemoryStore())
		if r := c.Login(ctx, "ada@example.com", "hunter22"); !r.OK {
			t.Fatalf("Login failed: %s", r.Message)
		}

		if !c.Refresh(ctx) {
			t.Fatal("Refresh() = false for a live session")
		}
		if !c.IsLoggedIn() {
			t.Error("IsLoggedIn() = false after refresh")
		}
	})

	t.Run("failure clears the session", func(t *testing.T) {
		be := backendtest.New()
		be.AddAccount("ada@example.com", "hunter22", "Ada")
		store := NewMemoryStore()
		c := New(be, store)
		if r := c.Login(ctx, "ada@example.com", "hunter22"); !r.OK {
			t.Fatalf("Login failed: %s", r.Message)
		}

		be.RefreshErr = errors.New(errors.AuthFailed, "token no longer valid")
		if c.Refresh(ctx) {
			t.Fatal("Refresh() = true despite backend rejection")
		}
		if c.IsLoggedIn() || c.Token() != "" {
			t.Error("session not cleared after failed refresh")
		}
		if _, ok, _ := store.Load(); ok {
			t.Error("persisted session survived failed refresh")
		}
	})

	t.Run("no-op when anonymous", func(t *testing.T) {
		c := New(backendtest.New(), NewMemoryStore())
		if c.Refresh(ctx) {
			t.Error("Refresh() = true on an anonymous session")
		}
	})
}

func TestRestoreFromPersistedState(t *testing.T) {
	be := backendtest.New()
	ident := be.AddAccount("ada@example.com", "hunter22", "Ada")

	tests := []struct {
		name   string
		seed   func(store *MemoryStore)
		wantIn bool
	}{
		{
			name: "live token restores the session",
			seed: func(store *MemoryStore) {
				tok := be.IssueToken("ada@example.com", time.Now().Add(time.Hour))
				_ = store.Save(PersistedState{Token: tok, Identity: &ident})
			},
			wantIn: true,
		},
		{
			name: "expired token is discarded",
			seed: func(store *MemoryStore) {
				tok := be.IssueToken("ada@example.com", time.Now().Add(-time.Minute))
				_ = store.Save(PersistedState{Token: tok, Identity: &ident})
			},
			wantIn: false,
		},
		{
			name: "malformed token is discarded",
			seed: func(store *MemoryStore) {
				_ = store.Save(PersistedState{Token: "not-a-token", Identity: &ident})
			},
			wantIn: false,
		},
		{
			name: "token without identity is discarded",
			seed: func(store *MemoryStore) {
				tok := be.IssueToken("ada@example.com", time.Now().Add(time.Hour))
				_ = store.Save(PersistedState{Token: tok})
			},
			wantIn: false,
		},
		{
			name:   "empty store stays anonymous",
			seed:   func(store *MemoryStore) {},
			wantIn: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			tt.seed(store)
			c := New(be, store)
			if got := c.IsLoggedIn(); got != tt.wantIn {
				t.Errorf("IsLoggedIn() = %v, want %v", got, tt.wantIn)
			}
			if tt.wantIn && c.User().Email != "ada@example.com" {
				t.Errorf("User().Email = %q, want ada@example.com", c.User().Email)
			}
		})
	}
}

func TestSubscribe(t *testing.T) {
	be := backendtest.New()
	be.AddAccount("ada@example.com", "hunter22", "Ada")
	c := New(be, NewMemoryStore())

	var seen []Snapshot
	unsub := c.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	if r := c.Login(context.Background(), "ada@example.com", "hunter22"); !r.OK {
		t.Fatalf("Login failed: %s", r.Message)
	}
	c.Logout()

	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if !seen[0].Valid || seen[0].Identity == nil {
		t.Errorf("first notification = %+v, want valid snapshot", seen[0])
	}
	if seen[1].Valid || seen[1].Identity != nil || seen[1].Token != "" {
		t.Errorf("second notification = %+v, want cleared snapshot", seen[1])
	}

	unsub()
	unsub() // safe to call twice
	_ = c.Login(context.Background(), "ada@example.com", "hunter22")
	if len(seen) != 2 {
		t.Errorf("got %d notifications after unsubscribe, want 2", len(seen))
	}
}

func TestTokenLive(t *testing.T) {
	be := backendtest.New()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"expires in the future", be.IssueToken("a@b.c", time.Now().Add(time.Hour)), true},
		{"already expired", be.IssueToken("a@b.c", time.Now().Add(-time.Hour)), false},
		{"not a jwt", "garbage", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenLive(tt.token); got != tt.want {
				t.Errorf("tokenLive(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
