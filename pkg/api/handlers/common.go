// Package handlers contains the HTTP handlers for the /v1 API surface.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"threadkit/pkg/chat"
	"threadkit/pkg/config"
	"threadkit/pkg/store"
	"threadkit/pkg/utils"
)

var (
	orch *chat.Orchestrator
	cfg  *config.Config
)

// Init wires the handler package to the orchestrator and effective config.
// Must be called before any route registration.
func Init(o *chat.Orchestrator, c *config.Config) {
	orch = o
	cfg = c
}

// pageParams extracts cursor/limit/order query parameters, clamping the
// limit to the configured bounds.
func pageParams(r *http.Request) (cursor string, limit int, order store.Order) {
	q := r.URL.Query()
	cursor = q.Get("cursor")
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = n
	}
	if cfg != nil {
		limit = cfg.PageLimit(limit)
	} else if limit <= 0 {
		limit = 50
	}
	order = store.ParseOrder(q.Get("order"))
	return cursor, limit, order
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// storeError maps store errors onto HTTP status codes.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrUnavailable):
		utils.JSONError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}
