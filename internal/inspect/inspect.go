// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package inspect verifies a self-hosted backend's backing PostgreSQL
// database directly over a pgx connection pool. It reports whether the
// entitlement collections are provisioned and how many records each holds,
// which is the fastest way to diagnose a missing-collection condition
// without going through the REST surface.
package inspect

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Collections checked by the doctor, in display order.
var Collections = []string{"users", "products", "prices", "subscriptions"}

// CollectionStatus is the inspection result for one collection table.
type CollectionStatus struct {
	Name    string
	Present bool
	Records int64
}

// Ping verifies the DSN can reach the database within a short deadline.
func Ping(ctx context.Context, dsn string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	return pool.Ping(ctx)
}

// Check inspects all collection tables and returns their status in order.
// A table that does not exist is reported as absent, not as an error.
func Check(ctx context.Context, dsn string) ([]CollectionStatus, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	out := make([]CollectionStatus, 0, len(Collections))
	for _, name := range Collections {
		st := CollectionStatus{Name: name}

		var present bool
		if err := pool.QueryRow(ctx, "select to_regclass($1) is not null", name).Scan(&present); err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}
		st.Present = present

		if present {
			// Collection names are fixed above; no identifier injection risk.
			if err := pool.QueryRow(ctx, "select count(*) from "+name).Scan(&st.Records); err != nil {
				return nil, fmt.Errorf("count %s: %w", name, err)
			}
		}
		out = append(out, st)
	}
	return out, nil
}
