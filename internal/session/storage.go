// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session persistence. The production store keeps the serialized
// session in the OS keychain via internal/keychain.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/keychain"
)

var verboseSession = os.Getenv("SUBSYNC_VERBOSE") == "1"

// PersistedState is the serialized session restored at startup.
type PersistedState struct {
	Token    string            `json:"token"`
	Identity *backend.Identity `json:"identity,omitempty"`
}

// Store is the persistence port for the session cache. Load returns
// ok=false when no state has been persisted yet.
type Store interface {
	Save(PersistedState) error
	Load() (st PersistedState, ok bool, err error)
	Clear() error
}

// KeychainStore persists the session in the OS keychain.
type KeychainStore struct{}

// NewKeychainStore returns the production session store.
func NewKeychainStore() *KeychainStore { return &KeychainStore{} }

// Save writes the serialized session to the keychain.
func (s *KeychainStore) Save(st PersistedState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	km, err := keychain.GetManager()
	if err != nil {
		if verboseSession {
			fmt.Printf("[DEBUG] session.Save: GetManager failed: %v\n", err)
		}
		return err
	}
	if err := km.SaveSessionState(b); err != nil {
		if verboseSession {
			fmt.Printf("[DEBUG] session.Save: SaveSessionState failed: %v\n", err)
		}
		return err
	}
	return km.SaveAuthToken(st.Token)
}

// Load reads the serialized session from the keychain. Missing state yields
// ok=false without an error.
func (s *KeychainStore) Load() (PersistedState, bool, error) {
	var st PersistedState
	km, err := keychain.GetManager()
	if err != nil {
		if verboseSession {
			fmt.Printf("[DEBUG] session.Load: GetManager failed: %v\n", err)
		}
		return st, false, err
	}
	data, err := km.LoadSessionState()
	if err != nil || len(data) == 0 {
		if verboseSession {
			fmt.Printf("[DEBUG] session.Load: no persisted session (err: %v)\n", err)
		}
		return st, false, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		if verboseSession {
			fmt.Printf("[DEBUG] session.Load: unmarshal failed: %v\n", err)
		}
		return st, false, err
	}
	return st, true, nil
}

// Clear removes the persisted session from the keychain.
func (s *KeychainStore) Clear() error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.ClearAuth()
}

// MemoryStore is an in-process Store for tests and embedders that manage
// persistence themselves.
type MemoryStore struct {
	mu  sync.Mutex
	st  PersistedState
	set bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(st PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	s.set = true
	return nil
}

func (s *MemoryStore) Load() (PersistedState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st, s.set, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = PersistedState{}
	s.set = false
	return nil
}
