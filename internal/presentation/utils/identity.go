package utils

import (
	"net/http"
	"strconv"
)

const userIDHeader = "X-User-ID"

// UserIDFrom extracts the authenticated user ID the edge proxy stamped on
// the request. Browser WebSocket clients cannot set headers, so the
// user_id query parameter is accepted as a fallback; the proxy strips it
// on untrusted traffic. Returns 0 when no identity is present.
func UserIDFrom(r *http.Request) int64 {
	if v := r.Header.Get(userIDHeader); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}

	if v := r.URL.Query().Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}

	return 0
}
