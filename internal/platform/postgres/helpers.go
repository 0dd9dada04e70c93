package postgres

import (
	"strconv"

	"github.com/google/uuid"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// limitOr returns limit, or def when limit is not positive.
func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

// nonNilStrings keeps NOT NULL text[] columns from receiving NULL.
func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// nullIfEmpty maps "" to a NULL parameter.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
