package api

import (
	"sort"
	"time"
)

// SortRequestsNewestFirst orders requests by CreatedAt descending, breaking ties by ID.
func SortRequestsNewestFirst(reqs []Request) []Request {
	if len(reqs) == 0 {
		return nil
	}
	sorted := make([]Request, len(reqs))
	copy(sorted, reqs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := parseRequestTime(sorted[i].CreatedAt)
		tj := parseRequestTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

func parseRequestTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// ParseRequestTime exposes request timestamp parsing for consumers that need display formatting.
func ParseRequestTime(value string) time.Time {
	return parseRequestTime(value)
}
