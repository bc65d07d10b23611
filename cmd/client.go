// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/config"
	"subsync/cli/internal/entitlement"
	"subsync/cli/internal/session"
)

// client bundles the explicitly constructed service pair commands operate on.
// Each command builds its own instance; there is no package-level singleton.
type client struct {
	cfg  config.Config
	be   backend.API
	sess *session.Cache
	ent  *entitlement.Cache
}

// newClient constructs the backend connection and the session/entitlement
// cache pair. The persisted session is restored eagerly; when a live session
// is present a best-effort token refresh keeps it current, and a failed
// refresh logs the session out, matching app-shell startup behavior.
func newClient(ctx context.Context) (*client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	be := backend.New(cfg.BackendURL)
	sess := session.New(be, session.NewKeychainStore())
	if sess.IsLoggedIn() {
		_ = sess.Refresh(ctx)
	}
	return &client{
		cfg:  cfg,
		be:   be,
		sess: sess,
		ent:  entitlement.New(be, sess),
	}, nil
}

// close releases the entitlement cache's session subscription.
func (c *client) close() {
	c.ent.Close()
}
