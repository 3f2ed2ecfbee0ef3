package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomobs/tom-portal/internal/domain/model"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
)

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// ParseListOptions reads page, page_size and search; values are clamped
// to the range the TOM API accepts.
func ParseListOptions(r *http.Request) model.ListOptions {
	return model.ListOptions{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", model.DefaultPageSize),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}.Normalize()
}

// parseIDList reads a comma-separated (or repeated) list of positive integers.
func parseIDList(r *http.Request, key string) ([]int64, error) {
	var ids []int64
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, apperrors.ValidationField(key, "must be a comma-separated list of ids")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parsePathID reads a positive integer path value.
func parsePathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationField(name, "must be a positive integer")
	}
	return id, nil
}
