// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package entitlement

// Collection names in the backend schema.
const (
	productsCollection      = "products"
	pricesCollection        = "prices"
	subscriptionsCollection = "subscriptions"
)

// Subscription statuses that grant access.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	// StatusNone is reported when no subscription is cached.
	StatusNone = "none"
)

// Product is an immutable catalog snapshot fetched per load cycle.
// ProductID is the business identifier, distinct from the storage id.
type Product struct {
	ID          string         `json:"id"`
	ProductID   string         `json:"product_id"`
	Active      bool           `json:"active"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Order       int            `json:"product_order,omitempty"`
}

// Price belongs to a Product via ProductID. Referential integrity is the
// backend's concern; the cache takes what it gets.
type Price struct {
	ID              string         `json:"id"`
	PriceID         string         `json:"price_id"`
	ProductID       string         `json:"product_id"`
	Active          bool           `json:"active"`
	Currency        string         `json:"currency"`
	UnitAmount      int64          `json:"unit_amount"`
	Type            string         `json:"type"`
	Interval        string         `json:"interval,omitempty"`
	IntervalCount   int            `json:"interval_count,omitempty"`
	TrialPeriodDays int            `json:"trial_period_days,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Subscription is the current billing subscription for an identity.
// At most one is cached: the most recently created record whose status is
// active or trialing.
type Subscription struct {
	ID                 string         `json:"id"`
	SubscriptionID     string         `json:"subscription_id"`
	UserID             string         `json:"user_id"`
	Status             string         `json:"status"`
	PriceID            string         `json:"price_id"`
	Quantity           int            `json:"quantity"`
	CancelAtPeriodEnd  bool           `json:"cancel_at_period_end"`
	CurrentPeriodStart int64          `json:"current_period_start"`
	CurrentPeriodEnd   int64          `json:"current_period_end"`
	EndedAt            int64          `json:"ended_at,omitempty"`
	CancelAt           int64          `json:"cancel_at,omitempty"`
	CanceledAt         int64          `json:"canceled_at,omitempty"`
	TrialStart         int64          `json:"trial_start,omitempty"`
	TrialEnd           int64          `json:"trial_end,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Created            string         `json:"created"`
}
