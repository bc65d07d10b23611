// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"subsync/cli/internal/errors"
)

// listPageSize is the page size used when walking a collection.
const listPageSize = 200

// recordPage is one page of a collection listing.
type recordPage struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Items      []json.RawMessage `json:"items"`
}

// ListRecords walks GET /api/collections/{collection}/records page by page
// until the listing is exhausted and returns the raw records in order.
func (h *HTTP) ListRecords(ctx context.Context, token, collection string, q Query) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for page := 1; ; page++ {
		p, err := h.listPage(ctx, token, collection, q, page, listPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if p.TotalPages <= 0 || page >= p.TotalPages {
			return all, nil
		}
	}
}

// FirstMatching returns the first record matching the query in the query's
// sort order. When the collection has no matching record a typed not-found
// error is returned, distinct from schema absence.
func (h *HTTP) FirstMatching(ctx context.Context, token, collection string, q Query) (json.RawMessage, error) {
	p, err := h.listPage(ctx, token, collection, q, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		return nil, errors.New(errors.NotFound, "no matching record in "+collection)
	}
	return p.Items[0], nil
}

func (h *HTTP) listPage(ctx context.Context, token, collection string, q Query, page, perPage int) (*recordPage, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("perPage", strconv.Itoa(perPage))
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}

	var p recordPage
	path := "/api/collections/" + url.PathEscape(collection) + "/records?" + v.Encode()
	if err := h.doJSON(ctx, http.MethodGet, path, token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
