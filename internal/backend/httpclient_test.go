// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"subsync/cli/internal/errors"
)

func TestDecodeErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  errors.Kind
		wantInMsg string
	}{
		{
			name:     "missing collection",
			status:   404,
			body:     `{"code":404,"message":"Missing collection context.","data":{}}`,
			wantKind: errors.MissingCollection,
		},
		{
			name:     "plain not found",
			status:   404,
			body:     `{"code":404,"message":"The requested resource wasn't found.","data":{}}`,
			wantKind: errors.NotFound,
		},
		{
			name:     "unauthorized",
			status:   401,
			body:     `{"code":401,"message":"The request requires valid record authorization token.","data":{}}`,
			wantKind: errors.AuthFailed,
		},
		{
			name:     "forbidden",
			status:   403,
			body:     `{"code":403,"message":"Only superusers can access this action.","data":{}}`,
			wantKind: errors.AuthFailed,
		},
		{
			name:      "validation with field detail",
			status:    400,
			body:      `{"code":400,"message":"Failed to create record.","data":{"email":{"code":"validation_invalid_email","message":"Must be a valid email address."}}}`,
			wantKind:  errors.ValidationFailed,
			wantInMsg: "email: Must be a valid email address.",
		},
		{
			name:     "server error",
			status:   500,
			body:     `{"code":500,"message":"Something went wrong.","data":{}}`,
			wantKind: errors.NetworkFailed,
		},
		{
			name:      "empty body falls back to status",
			status:    502,
			body:      ``,
			wantKind:  errors.NetworkFailed,
			wantInMsg: "502",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			h := newHTTP(srv.URL)
			_, err := h.ListRecords(context.Background(), "tok", "products", Query{})
			if err == nil {
				t.Fatal("ListRecords succeeded, want typed error")
			}
			if got := errors.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(err) = %q, want %q", got, tt.wantKind)
			}
			if tt.wantInMsg != "" && !strings.Contains(err.Error(), tt.wantInMsg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantInMsg)
			}
		})
	}
}

func TestListRecordsPagination(t *testing.T) {
	const totalPages = 3
	var pagesServed []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collections/prices/records" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter"); got != `active = true` {
			t.Errorf("filter = %q, want %q", got, `active = true`)
		}
		if got := r.URL.Query().Get("sort"); got != "unit_amount" {
			t.Errorf("sort = %q, want unit_amount", got)
		}
		if got := r.Header.Get("Authorization"); got != "tok" {
			t.Errorf("Authorization = %q, want tok", got)
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pagesServed = append(pagesServed, page)

		items := []json.RawMessage{
			json.RawMessage(fmt.Sprintf(`{"id":"rec%d-a"}`, page)),
			json.RawMessage(fmt.Sprintf(`{"id":"rec%d-b"}`, page)),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page":       page,
			"perPage":    2,
			"totalPages": totalPages,
			"totalItems": totalPages * 2,
			"items":      items,
		})
	}))
	defer srv.Close()

	h := newHTTP(srv.URL)
	raws, err := h.ListRecords(context.Background(), "tok", "prices", Query{
		Filter: `active = true`,
		Sort:   "unit_amount",
	})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(raws) != totalPages*2 {
		t.Errorf("got %d records, want %d", len(raws), totalPages*2)
	}
	if len(pagesServed) != totalPages || pagesServed[0] != 1 || pagesServed[totalPages-1] != totalPages {
		t.Errorf("pages walked = %v, want 1..%d in order", pagesServed, totalPages)
	}
}

func TestFirstMatching(t *testing.T) {
	t.Run("returns the first record", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("perPage"); got != "1" {
				t.Errorf("perPage = %q, want 1", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"page": 1, "perPage": 1, "totalPages": 4, "totalItems": 4,
				"items": []json.RawMessage{json.RawMessage(`{"id":"sub1","status":"active"}`)},
			})
		}))
		defer srv.Close()

		raw, err := newHTTP(srv.URL).FirstMatching(context.Background(), "tok", "subscriptions", Query{Sort: "-created"})
		if err != nil {
			t.Fatalf("FirstMatching: %v", err)
		}
		if !strings.Contains(string(raw), `"sub1"`) {
			t.Errorf("raw = %s, want sub1", raw)
		}
	})

	t.Run("no match is a typed not-found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"page": 1, "perPage": 1, "totalPages": 0, "totalItems": 0,
				"items": []json.RawMessage{},
			})
		}))
		defer srv.Close()

		_, err := newHTTP(srv.URL).FirstMatching(context.Background(), "tok", "subscriptions", Query{})
		if !errors.IsNotFound(err) {
			t.Fatalf("err = %v, want not-found", err)
		}
		if !strings.Contains(err.Error(), "subscriptions") {
			t.Errorf("err = %q, want it to name the collection", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/collections/users/auth-with-password" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["identity"] != "ada@example.com" || body["password"] != "hunter22" {
				t.Errorf("auth body = %v", body)
			}
			fmt.Fprint(w, `{"token":"tok123","record":{"id":"u1","email":"ada@example.com","name":"Ada","verified":true}}`)
		}))
		defer srv.Close()

		res, err := newHTTP(srv.URL).Authenticate(context.Background(), "ada@example.com", "hunter22")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if res.Token != "tok123" || res.Record.Email != "ada@example.com" {
			t.Errorf("result = %+v", res)
		}
		if v, ok := res.Record.Meta["verified"].(bool); !ok || !v {
			t.Errorf("Meta = %v, want verified retained", res.Record.Meta)
		}
	})

	t.Run("bad credentials become auth failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":400,"message":"Failed to authenticate.","data":{}}`)
		}))
		defer srv.Close()

		_, err := newHTTP(srv.URL).Authenticate(context.Background(), "ada@example.com", "wrong")
		if got := errors.KindOf(err); got != errors.AuthFailed {
			t.Fatalf("KindOf(err) = %q, want %q (err: %v)", got, errors.AuthFailed, err)
		}
	})

	t.Run("missing token is an auth failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"token":"","record":{"id":"u1"}}`)
		}))
		defer srv.Close()

		_, err := newHTTP(srv.URL).Authenticate(context.Background(), "ada@example.com", "hunter22")
		if got := errors.KindOf(err); got != errors.AuthFailed {
			t.Fatalf("KindOf(err) = %q, want %q", got, errors.AuthFailed)
		}
	})
}

func TestRefreshAuth(t *testing.T) {
	t.Run("renews with current token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/collections/users/auth-refresh" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "old-token" {
				t.Errorf("Authorization = %q, want old-token", got)
			}
			fmt.Fprint(w, `{"token":"new-token","record":{"id":"u1","email":"ada@example.com"}}`)
		}))
		defer srv.Close()

		res, err := newHTTP(srv.URL).RefreshAuth(context.Background(), "old-token")
		if err != nil {
			t.Fatalf("RefreshAuth: %v", err)
		}
		if res.Token != "new-token" {
			t.Errorf("Token = %q, want new-token", res.Token)
		}
	})

	t.Run("rejected token becomes auth failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":404,"message":"Missing auth record context.","data":{}}`)
		}))
		defer srv.Close()

		_, err := newHTTP(srv.URL).RefreshAuth(context.Background(), "stale")
		if got := errors.KindOf(err); got != errors.AuthFailed {
			t.Fatalf("KindOf(err) = %q, want %q (err: %v)", got, errors.AuthFailed, err)
		}
		if !strings.Contains(err.Error(), "token no longer valid") {
			t.Errorf("err = %q, want token-invalid wording", err)
		}
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"healthy with message", 200, `{"message":"API is healthy.","code":200}`, "API is healthy."},
		{"healthy without message", 200, `{}`, "ok"},
		{"unhealthy", 500, ``, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			got, err := newHTTP(srv.URL).Health(context.Background())
			if err != nil {
				t.Fatalf("Health: %v", err)
			}
			if got != tt.want {
				t.Errorf("Health() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityJSONRoundTrip(t *testing.T) {
	in := `{"id":"u1","email":"ada@example.com","name":"Ada","created":"2025-08-01 10:00:00","updated":"2025-08-02 10:00:00","verified":true,"avatar":"a.png"}`
	var id Identity
	if err := json.Unmarshal([]byte(in), &id); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if id.ID != "u1" || id.Email != "ada@example.com" || id.Name != "Ada" {
		t.Errorf("promoted fields = %+v", id)
	}
	if id.Meta["avatar"] != "a.png" {
		t.Errorf("Meta = %v, want avatar retained", id.Meta)
	}
	if _, promoted := id.Meta["email"]; promoted {
		t.Error("email duplicated into Meta")
	}

	out, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Identity
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(Marshal): %v", err)
	}
	if back.Email != id.Email || back.Meta["avatar"] != id.Meta["avatar"] {
		t.Errorf("round trip lost data: %+v", back)
	}
}
