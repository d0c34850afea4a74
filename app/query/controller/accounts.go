package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/emblem-network/emblemx/pkg/accounts"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultViewLimit = 50
	maxViewLimit     = 200
)

// HandleAccount returns the cached record for an address or username.
// Cache-only: this never triggers a fetch. Reserved names return their
// synthetic record.
func (c *Controller) HandleAccount(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing account key")
		return
	}

	rec, ok := c.App.Engine.GetAccount(key)
	if !ok {
		writeError(w, http.StatusNotFound, "account not cached")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HandleFetch runs one plan → fetch → merge → commit cycle for the posted
// requests. A gateway failure is logged and leaves the cache untouched; the
// caller still gets 202 and keeps reading whatever was cached before.
func (c *Controller) HandleFetch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Requests []accounts.FetchRequest `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(in.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "no requests")
		return
	}

	if err := c.App.Engine.FetchAccounts(r.Context(), in.Requests); err != nil {
		c.App.Logger.Warn("fetch cycle resolved as no-op", zap.Error(err))
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleInvalidate removes the given keys from the cache so the next fetch
// treats them as fully uncached (forceful refresh). Auth-protected.
func (c *Controller) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(in.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "no keys")
		return
	}

	c.App.Engine.Invalidate(in.Keys...)
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": len(in.Keys)})
}

// viewResponse is one resolved page of a named view: the entries the view's
// ids index into, in view order, plus the cursor to continue from.
type viewResponse struct {
	ViewID     string              `json:"viewId"`
	Type       accounts.ViewType   `json:"type"`
	Entries    []any               `json:"entries"`
	Pagination accounts.Pagination `json:"pagination"`
}

// HandleAccountView resolves a view's ordered ids against the record's
// sub-resource lists. Query parameters:
//   - limit: max number of entries (default 50, max 200)
func (c *Controller) HandleAccountView(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	viewID := mux.Vars(r)["viewId"]
	if key == "" || viewID == "" {
		writeError(w, http.StatusBadRequest, "missing account key or view id")
		return
	}

	limit := defaultViewLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
		if limit > maxViewLimit {
			limit = maxViewLimit
		}
	}

	rec, ok := c.App.Engine.GetAccount(key)
	if !ok {
		writeError(w, http.StatusNotFound, "account not cached")
		return
	}

	view, ok := rec.Views[viewID]
	if !ok {
		writeError(w, http.StatusNotFound, "view not cached")
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{
		ViewID:     viewID,
		Type:       view.Type,
		Entries:    resolveViewEntries(rec, view, limit),
		Pagination: view.Pagination,
	})
}

// resolveViewEntries picks entries out of the typed sub-resource list the
// view indexes into, preserving the view's id order.
func resolveViewEntries(rec *accounts.AccountRecord, view accounts.ViewState, limit int) []any {
	byID := make(map[string]any)
	switch view.Type {
	case accounts.ViewActivity:
		for _, e := range rec.Activity {
			byID[e.ID] = e
		}
	case accounts.ViewReviews:
		for _, e := range rec.Reviews {
			byID[e.ID] = e
		}
	case accounts.ViewAnnouncements:
		for _, e := range rec.Announcements {
			byID[e.ID] = e
		}
	case accounts.ViewListActivity:
		for _, e := range rec.ListActivity {
			byID[e.ID] = e
		}
	case accounts.ViewClaimAlerts:
		for _, e := range rec.ClaimAlerts {
			byID[e.ID] = e
		}
	case accounts.ViewAuthCodes:
		for _, e := range rec.AuthCodes {
			byID[e.ID] = e
		}
	case accounts.ViewBadgeBalances:
		for _, e := range rec.BadgeBalances {
			byID[e.ID] = e
		}
	case accounts.ViewAddressLists:
		for _, e := range rec.AddressLists {
			byID[e.ID] = e
		}
	}

	out := make([]any, 0, limit)
	for _, id := range view.IDs {
		if len(out) >= limit {
			break
		}
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
