package api

import (
	"net/http"
	"strconv"

	"github.com/linkshelf/linkshelf/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// parsePage extracts offset and limit from query parameters.
// limit defaults to 100 and is silently capped at 500; bad values fall back to defaults.
func parsePage(r *http.Request) store.Page {
	page := store.Page{Limit: defaultLimit}
	q := r.URL.Query()

	if o := q.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed > 0 {
			page.Offset = parsed
		}
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			page.Limit = parsed
		}
	}
	if page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}
