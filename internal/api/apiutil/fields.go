package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// IDFromQuery parses a positive integer identifier from the query string.
func IDFromQuery(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return id, nil
}

// IDFromPath parses the trailing positive integer segment of a URL path,
// e.g. /api/v1/reservations/42.
func IDFromPath(path, prefix string) (int64, error) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, fmt.Errorf("invalid resource path")
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid resource identifier")
	}
	return id, nil
}

// DayFromQuery parses a required YYYY-MM-DD query parameter.
func DayFromQuery(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", fmt.Errorf("%s must be formatted as YYYY-MM-DD", key)
	}
	return raw, nil
}

func FormatPriceCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
