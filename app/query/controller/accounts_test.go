package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/emblem-network/emblemx/app/query/types"
	"github.com/emblem-network/emblemx/pkg/accounts"
)

var (
	testAddr  = "0x" + strings.Repeat("a1", 20)
	testAddr2 = "0x" + strings.Repeat("b2", 20)
)

// stubGateway serves canned payloads keyed by requested address.
type stubGateway struct {
	calls   atomic.Int32
	fail    bool
	records map[string]*accounts.AccountRecord
}

func (g *stubGateway) FetchBatch(_ context.Context, reqs []accounts.FetchRequest) ([]*accounts.AccountRecord, error) {
	g.calls.Add(1)
	if g.fail {
		return nil, assert.AnError
	}
	out := make([]*accounts.AccountRecord, 0, len(reqs))
	for _, fr := range reqs {
		if rec, ok := g.records[fr.Address]; ok {
			clone := rec.Clone()
			out = append(out, clone)
		}
	}
	return out, nil
}

// setupTestController creates a controller over a real engine with a stubbed
// gateway and a deterministic admin user.
func setupTestController(t *testing.T, gw accounts.Gateway) (*Controller, *mux.Router) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	app := &types.App{
		Engine: accounts.NewEngine(accounts.NewStore(), gw, types.HexCodec{}, logger, nil),
		Logger: logger,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	c := &Controller{
		App:        app,
		AdminToken: "test-token",
		Users:      map[string]types.User{"admin": {Username: "admin", Hash: hash, Role: "admin"}},
		JWTSecret:  []byte("test-secret"),
	}
	router, err := c.NewRouter()
	require.NoError(t, err)
	return c, router
}

func postJSON(router *mux.Router, path string, body string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// TestHandleAccount_NotCached tests the cache-only read miss.
func TestHandleAccount_NotCached(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+testAddr, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// TestHandleAccount_Reserved tests that reserved names are always readable.
func TestHandleAccount_Reserved(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+accounts.ReservedMint, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var rec accounts.AccountRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, accounts.ReservedMint, rec.Address)
}

// TestHandleFetch_ThenRead tests the full fetch cycle through the router.
func TestHandleFetch_ThenRead(t *testing.T) {
	seq := uint64(3)
	gw := &stubGateway{records: map[string]*accounts.AccountRecord{
		testAddr: {
			Address:        testAddr,
			Username:       "alice",
			Sequence:       &seq,
			AccountNumber:  accounts.UnsetAccountNumber,
			FetchedProfile: true,
		},
	}}
	_, router := setupTestController(t, gw)

	rr := postJSON(router, "/api/accounts/fetch", `{"requests":[{"address":"`+testAddr+`","fetchSequence":true}]}`, nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	// Readable by address and by the username the payload carried.
	for _, key := range []string{testAddr, "alice"} {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+key, nil)
		get := httptest.NewRecorder()
		router.ServeHTTP(get, req)
		require.Equal(t, http.StatusOK, get.Code, key)
	}
}

// TestHandleFetch_GatewayFailure tests that a failed cycle still returns 202
// and leaves the cache readable.
func TestHandleFetch_GatewayFailure(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{fail: true})

	rr := postJSON(router, "/api/accounts/fetch", `{"requests":[{"address":"`+testAddr+`"}]}`, nil)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

// TestHandleFetch_BadInput tests input validation on the fetch endpoint.
func TestHandleFetch_BadInput(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	assert.Equal(t, http.StatusBadRequest, postJSON(router, "/api/accounts/fetch", `{`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(router, "/api/accounts/fetch", `{"requests":[]}`, nil).Code)
}

// TestHandleAccountView tests resolving a view page with a limit.
func TestHandleAccountView(t *testing.T) {
	gw := &stubGateway{records: map[string]*accounts.AccountRecord{
		testAddr: {
			Address:       testAddr,
			AccountNumber: accounts.UnsetAccountNumber,
			Activity: []accounts.ActivityEntry{
				{ID: "a", Timestamp: 3},
				{ID: "b", Timestamp: 2},
				{ID: "c", Timestamp: 1},
			},
			Views: map[string]accounts.ViewState{
				"latestActivity": {
					IDs:        []string{"a", "b", "c"},
					Pagination: accounts.Pagination{Bookmark: "next", HasMore: true},
					Type:       accounts.ViewActivity,
				},
			},
		},
	}}
	_, router := setupTestController(t, gw)

	rr := postJSON(router, "/api/accounts/fetch", `{"requests":[{"address":"`+testAddr+`"}]}`, nil)
	require.Equal(t, http.StatusAccepted, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+testAddr+"/views/latestActivity?limit=2", nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)

	require.Equal(t, http.StatusOK, get.Code)
	var resp viewResponse
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &resp))
	assert.Equal(t, "latestActivity", resp.ViewID)
	assert.Equal(t, accounts.ViewActivity, resp.Type)
	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, "next", resp.Pagination.Bookmark)
	assert.True(t, resp.Pagination.HasMore)
}

// TestHandleAccountView_NotCached tests view misses.
func TestHandleAccountView_NotCached(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+testAddr+"/views/whatever", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// TestHandleInvalidate_Auth tests that invalidation requires the admin token
// or a session cookie.
func TestHandleInvalidate_Auth(t *testing.T) {
	gw := &stubGateway{records: map[string]*accounts.AccountRecord{
		testAddr2: {Address: testAddr2, AccountNumber: accounts.UnsetAccountNumber, FetchedProfile: true},
	}}
	_, router := setupTestController(t, gw)

	postJSON(router, "/api/accounts/fetch", `{"requests":[{"address":"`+testAddr2+`"}]}`, nil)

	body := `{"keys":["` + testAddr2 + `"]}`

	rr := postJSON(router, "/api/accounts/invalidate", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postJSON(router, "/api/accounts/invalidate", body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer test-token")
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// The record is gone until the next fetch cycle.
	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+testAddr2, nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)
	assert.Equal(t, http.StatusNotFound, get.Code)
}

// TestLogin_SessionCookieGrantsAccess tests the login → cookie → protected
// endpoint flow.
func TestLogin_SessionCookieGrantsAccess(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	rr := postJSON(router, "/api/auth/login", `{"username":"admin","password":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)

	inv := postJSON(router, "/api/accounts/invalidate", `{"keys":["`+testAddr+`"]}`, func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	})
	assert.Equal(t, http.StatusOK, inv.Code)
}

// TestLogin_RejectsBadCredentials tests credential validation.
func TestLogin_RejectsBadCredentials(t *testing.T) {
	_, router := setupTestController(t, &stubGateway{})

	assert.Equal(t, http.StatusUnauthorized, postJSON(router, "/api/auth/login", `{"username":"admin","password":"wrong"}`, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(router, "/api/auth/login", `{"username":"nobody","password":"x"}`, nil).Code)
}
