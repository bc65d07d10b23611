// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package entitlement keeps product, price, and subscription snapshots
// consistent with the current identity and derives access decisions from
// them. It observes the session cache's login transitions: a login triggers
// a catalog load, a logout clears everything without touching the network.
//
// A backend whose catalog collections are not provisioned yet is an expected
// condition: the affected query degrades to empty data instead of failing
// the load.
package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/pterm/pterm"

	"subsync/cli/internal/backend"
	"subsync/cli/internal/errors"
	"subsync/cli/internal/session"
)

// Cache holds the entitlement snapshots for the currently authenticated
// identity. Construct with New and release with Close.
type Cache struct {
	be   backend.API
	sess *session.Cache

	mu       sync.RWMutex
	products []Product
	prices   []Price
	sub      *Subscription
	loading  bool
	// gen invalidates in-flight loads: results are installed only when the
	// generation they started under is still current.
	gen uint64

	loggedIn bool
	unsub    func()
}

// New constructs an entitlement cache observing the given session cache.
// The subscription to session changes is established here; the cache stays
// empty until a login transition occurs or LoadData is called explicitly.
func New(be backend.API, sess *session.Cache) *Cache {
	c := &Cache{
		be:       be,
		sess:     sess,
		loggedIn: sess.IsLoggedIn(),
	}
	c.unsub = sess.Subscribe(c.onSessionChange)
	return c
}

// Close unsubscribes from session changes. The cache must not be used after.
func (c *Cache) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// onSessionChange reacts to login-state transitions only; snapshot
// replacements that keep the login state (token refresh) are ignored.
func (c *Cache) onSessionChange(snap session.Snapshot) {
	loggedIn := snap.Valid && snap.Identity != nil

	c.mu.Lock()
	was := c.loggedIn
	c.loggedIn = loggedIn
	c.mu.Unlock()
	if loggedIn == was {
		return
	}

	if loggedIn {
		go c.LoadData(context.Background())
	} else {
		c.clear()
	}
}

// clear drops all three snapshots synchronously and invalidates any load
// still in flight.
func (c *Cache) clear() {
	c.mu.Lock()
	c.gen++
	c.products = nil
	c.prices = nil
	c.sub = nil
	c.loading = false
	c.mu.Unlock()
}

// listOutcome is the per-query result of a catalog fetch. A missing backend
// collection degrades that query to empty data rather than failing the
// combined load.
type listOutcome[T any] struct {
	items   []T
	missing bool
	err     error
}

func fetchList[T any](ctx context.Context, be backend.API, token, collection string, q backend.Query) listOutcome[T] {
	raws, err := be.ListRecords(ctx, token, collection, q)
	if err != nil {
		if errors.IsMissingCollection(err) {
			return listOutcome[T]{missing: true}
		}
		return listOutcome[T]{err: err}
	}
	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return listOutcome[T]{err: err}
		}
		items = append(items, item)
	}
	return listOutcome[T]{items: items}
}

// LoadData reloads products and prices in parallel, then the current
// subscription. It is a no-op when not logged in. A missing collection on
// either list query degrades that query to empty; any other failure resets
// the whole cache to empty as a conservative fallback and is logged as a
// warning, never returned. The loading flag is cleared on every exit path.
func (c *Cache) LoadData(ctx context.Context) {
	if !c.sess.IsLoggedIn() {
		return
	}
	token := c.sess.Token()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loading = true
	c.mu.Unlock()
	defer c.clearLoading(gen)

	var (
		wg       sync.WaitGroup
		prodOut  listOutcome[Product]
		priceOut listOutcome[Price]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prodOut = fetchList[Product](ctx, c.be, token, productsCollection, backend.Query{
			Filter: `active = true`,
			Sort:   "product_order,name",
		})
	}()
	go func() {
		defer wg.Done()
		priceOut = fetchList[Price](ctx, c.be, token, pricesCollection, backend.Query{
			Filter: `active = true`,
			Sort:   "unit_amount",
		})
	}()
	wg.Wait()

	if prodOut.err != nil || priceOut.err != nil {
		err := prodOut.err
		if err == nil {
			err = priceOut.err
		}
		pterm.Warning.Printfln("Catalog load failed, clearing entitlement cache: %v", err)
		c.mu.Lock()
		if gen == c.gen {
			c.products = nil
			c.prices = nil
			c.sub = nil
		}
		c.mu.Unlock()
		return
	}
	if prodOut.missing || priceOut.missing {
		pterm.Info.Printfln("Catalog collections not provisioned yet; treating as empty")
	}

	c.mu.Lock()
	if gen != c.gen {
		// A newer load or a logout superseded this cycle.
		c.mu.Unlock()
		return
	}
	c.products = prodOut.items
	c.prices = priceOut.items
	c.mu.Unlock()

	c.loadUserSubscription(ctx, token, gen)
}

// LoadUserSubscription reloads only the current subscription snapshot.
// No-op when not logged in.
func (c *Cache) LoadUserSubscription(ctx context.Context) {
	if !c.sess.IsLoggedIn() {
		return
	}
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()
	c.loadUserSubscription(ctx, c.sess.Token(), gen)
}

// loadUserSubscription queries the most recently created subscription of the
// current identity whose status still grants access. "No matching record" is
// the normal no-subscription outcome, not an error. A missing collection is
// logged distinctly so operators can tell schema absence from churn.
func (c *Cache) loadUserSubscription(ctx context.Context, token string, gen uint64) {
	user := c.sess.User()
	if user == nil {
		return
	}

	filter := fmt.Sprintf(`user_id = %q && (status = %q || status = %q)`,
		user.ID, StatusActive, StatusTrialing)
	raw, err := c.be.FirstMatching(ctx, token, subscriptionsCollection, backend.Query{
		Filter: filter,
		Sort:   "-created",
	})

	var sub *Subscription
	switch {
	case err == nil:
		var s Subscription
		if jsonErr := json.Unmarshal(raw, &s); jsonErr == nil {
			sub = &s
		} else {
			pterm.Warning.Printfln("Subscription record unreadable: %v", jsonErr)
		}
	case errors.IsNotFound(err):
		// Genuinely no active subscription.
	case errors.IsMissingCollection(err):
		pterm.Info.Printfln("Subscriptions collection not provisioned yet")
	default:
		pterm.Warning.Printfln("Subscription load failed: %v", err)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.sub = sub
	}
	c.mu.Unlock()
}

// clearLoading drops the loading flag unless a newer load owns it now.
func (c *Cache) clearLoading(gen uint64) {
	c.mu.Lock()
	if gen == c.gen {
		c.loading = false
	}
	c.mu.Unlock()
}

// Refresh forces a resynchronization of all entitlement data.
func (c *Cache) Refresh(ctx context.Context) {
	c.LoadData(ctx)
}

// IsLoading reports whether a load cycle is in flight.
func (c *Cache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Products returns the cached catalog in load order (product_order, name).
func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

// Prices returns the cached prices ordered by unit amount ascending.
func (c *Cache) Prices() []Price {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.prices)
}

// UserSubscription returns a copy of the cached subscription, nil when none.
func (c *Cache) UserSubscription() *Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sub == nil {
		return nil
	}
	s := *c.sub
	return &s
}

// PricesForProduct returns all cached prices belonging to the product,
// preserving load order.
func (c *Cache) PricesForProduct(productID string) []Price {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Price
	for _, p := range c.prices {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

// Product looks up a cached product by its business identifier.
func (c *Cache) Product(productID string) *Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.products {
		if c.products[i].ProductID == productID {
			p := c.products[i]
			return &p
		}
	}
	return nil
}

// Price looks up a cached price by its business identifier.
func (c *Cache) Price(priceID string) *Price {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.prices {
		if c.prices[i].PriceID == priceID {
			p := c.prices[i]
			return &p
		}
	}
	return nil
}

// IsSubscribed reports whether the cached subscription grants access.
func (c *Cache) IsSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub != nil && (c.sub.Status == StatusActive || c.sub.Status == StatusTrialing)
}

// SubscriptionStatus returns the cached subscription's status, or "none".
func (c *Cache) SubscriptionStatus() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sub == nil {
		return StatusNone
	}
	return c.sub.Status
}

// HasAccess decides whether the current subscription grants access to a
// product. An empty productID means any active subscription qualifies.
// Otherwise the subscription's price must belong to that product.
// The subscription pointer is read once so a concurrent reload cannot pull
// it out from under the decision.
func (c *Cache) HasAccess(productID string) bool {
	c.mu.RLock()
	sub := c.sub
	c.mu.RUnlock()

	if sub == nil || (sub.Status != StatusActive && sub.Status != StatusTrialing) {
		return false
	}
	if productID == "" {
		return true
	}

	price := c.Price(sub.PriceID)
	return price != nil && price.ProductID == productID
}
