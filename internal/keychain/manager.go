// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for subsync.
// This module manages all interactions with the OS keychain/credential store,
// providing a unified interface for storing and retrieving sensitive data such as
// the session token, the serialized session state, and database credentials.
//
// Supported backends are the macOS Keychain, the Windows Credential Manager,
// and the freedesktop Secret Service on Linux. Secrets never land in plain
// files.
package keychain

import (
	"errors"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "subsync"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAuthToken    = "auth_token"
	KeySessionState = "session_state"
	KeyDBDSN        = "db_dsn"
)

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// MustGetManager returns the global keychain manager instance.
// Panics if initialization fails. Use only when you're sure initialization will succeed.
func MustGetManager() *Manager {
	manager, err := GetManager()
	if err != nil {
		panic(err)
	}
	return manager
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.PassBackend,
		},
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		LibSecretCollectionName:  "login",
		KeychainTrustApplication: true,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, errors.New("no secure credential store available; install a keychain/secret-service provider")
	}
	return ring, nil
}

// SaveAuthToken stores the bearer token in the OS keychain.
// This method is thread-safe.
func (m *Manager) SaveAuthToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" {
		return nil
	}
	return m.ring.Set(keyring.Item{Key: KeyAuthToken, Data: []byte(token)})
}

// LoadAuthToken retrieves the bearer token from the keychain.
// This method is thread-safe.
func (m *Manager) LoadAuthToken() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(KeyAuthToken)
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", errors.New("empty auth token")
	}
	return string(it.Data), nil
}

// SaveSessionState stores the serialized session state in the keychain.
// This method is thread-safe.
func (m *Manager) SaveSessionState(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: KeySessionState, Data: data})
}

// LoadSessionState retrieves the serialized session state from the keychain.
// This method is thread-safe.
func (m *Manager) LoadSessionState() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(KeySessionState)
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

// ClearAuth removes the token and session state from the keychain.
// This method is thread-safe.
func (m *Manager) ClearAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.ring.Remove(KeyAuthToken)
	_ = m.ring.Remove(KeySessionState)
	return nil
}

// SaveDBDSN stores the self-hosted database DSN in the keychain.
// This method is thread-safe.
func (m *Manager) SaveDBDSN(dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ring.Set(keyring.Item{Key: KeyDBDSN, Data: []byte(dsn)})
}

// LoadDBDSN retrieves the self-hosted database DSN from the keychain.
// This method is thread-safe.
func (m *Manager) LoadDBDSN() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, err := m.ring.Get(KeyDBDSN)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// ClearDBDSN removes the stored database DSN from the keychain.
// This method is thread-safe.
func (m *Manager) ClearDBDSN() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.ring.Remove(KeyDBDSN)
	return nil
}
