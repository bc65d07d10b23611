// Copyright (c) 2025 Subsync
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backendtest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// matchesFilter evaluates the filter subset the client issues: equality
// clauses joined by &&, where a clause may be a parenthesized group of
// alternatives joined by ||, e.g.
//
//	active = true
//	user_id = "abc" && (status = "active" || status = "trialing")
func matchesFilter(rec map[string]any, filter string) (bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true, nil
	}
	for _, clause := range strings.Split(filter, "&&") {
		clause = strings.TrimSpace(clause)
		if strings.HasPrefix(clause, "(") && strings.HasSuffix(clause, ")") {
			any := false
			inner := clause[1 : len(clause)-1]
			for _, alt := range strings.Split(inner, "||") {
				ok, err := matchesClause(rec, alt)
				if err != nil {
					return false, err
				}
				if ok {
					any = true
					break
				}
			}
			if !any {
				return false, nil
			}
			continue
		}
		ok, err := matchesClause(rec, clause)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchesClause(rec map[string]any, clause string) (bool, error) {
	field, want, ok := strings.Cut(clause, "=")
	if !ok {
		return false, fmt.Errorf("backendtest: unsupported filter clause %q", clause)
	}
	field = strings.TrimSpace(field)
	want = strings.TrimSpace(want)
	got := rec[field]
	if unq, err := strconv.Unquote(want); err == nil {
		s, _ := got.(string)
		return s == unq, nil
	}
	switch want {
	case "true", "false":
		b, _ := got.(bool)
		return strconv.FormatBool(b) == want, nil
	}
	return fmt.Sprintf("%v", got) == want, nil
}

// sortRecords orders records in place by a comma-separated key list. A
// leading '-' on a key means descending. Numeric values compare
// numerically, everything else as strings.
func sortRecords(recs []map[string]any, keys string) {
	keys = strings.TrimSpace(keys)
	if keys == "" {
		return
	}
	fields := strings.Split(keys, ",")
	sort.SliceStable(recs, func(i, j int) bool {
		for _, field := range fields {
			field = strings.TrimSpace(field)
			desc := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")
			c := compareValues(recs[i][field], recs[j][field])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
