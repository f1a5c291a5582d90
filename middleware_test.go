package memberkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// TestRequireLevel tests the access-gating middleware
func TestRequireLevel(t *testing.T) {
	store := NewMemoryStore()
	seedMember(t, store, "organizations/org1", "u1", LevelWrite)

	mw := NewMiddleware(NewEvaluator(store))
	var called bool
	handler := mw.RequireLevel(LevelWrite, StaticPath("organizations/org1"))(okHandler(&called))

	// Sufficient level passes through
	req := httptest.NewRequest(http.MethodGet, "/orgs/org1", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)

	// Missing user is rejected
	called = false
	req = httptest.NewRequest(http.MethodGet, "/orgs/org1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	// Insufficient level is forbidden
	admin := mw.RequireLevel(LevelAdmin, StaticPath("organizations/org1"))(okHandler(&called))
	req = httptest.NewRequest(http.MethodGet, "/orgs/org1", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

// TestRequireLevelInjectsChecker tests that handlers see the user's checker
func TestRequireLevelInjectsChecker(t *testing.T) {
	store := NewMemoryStore()
	seedMember(t, store, "a/1", "u1", LevelRead)

	mw := NewMiddleware(NewEvaluator(store))
	var checker *Checker
	handler := mw.RequireLevel(LevelRead, StaticPath("a/1"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker = FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, checker)
	assert.Equal(t, "u1", checker.UserID())
}

// TestRequireLevelErrorMapping tests default error handler status codes
func TestRequireLevelErrorMapping(t *testing.T) {
	mw := NewMiddleware(NewEvaluator(NewMemoryStore()))
	var called bool

	// Extractor failure with an invalid path maps to 400
	handler := mw.RequireLevel(LevelRead, PathFromQuery("path"))(okHandler(&called))
	req := httptest.NewRequest(http.MethodGet, "/access", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

// TestRequireLevelCustomHandlers tests the extractor and error overrides
func TestRequireLevelCustomHandlers(t *testing.T) {
	store := NewMemoryStore()
	seedMember(t, store, "a/1", "u1", LevelRead)

	var gotErr error
	mw := NewMiddleware(NewEvaluator(store),
		WithUserIDExtractor(func(r *http.Request) string {
			return r.Header.Get("X-User-ID")
		}),
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			gotErr = err
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	var called bool
	handler := mw.RequireLevel(LevelAdmin, StaticPath("a/1"))(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, IsUnauthorized(gotErr))

	var rich *Error
	require.ErrorAs(t, gotErr, &rich)
	assert.Equal(t, "a/1", rich.Path)
	assert.Equal(t, LevelAdmin, rich.Level)
}

// TestPathFromParams tests building paths from route parameters
func TestPathFromParams(t *testing.T) {
	extractor := PathFromParams("organizations", "orgID", "chats", "chatID")

	req := httptest.NewRequest(http.MethodGet, "/orgs/org1/chats/chat1", nil)
	req.SetPathValue("orgID", "org1")
	req.SetPathValue("chatID", "chat1")

	path, err := extractor(req)
	require.NoError(t, err)
	assert.Equal(t, "organizations/org1/chats/chat1", path)

	// Missing parameter
	req = httptest.NewRequest(http.MethodGet, "/orgs/org1", nil)
	req.SetPathValue("orgID", "org1")
	_, err = extractor(req)
	assert.True(t, IsInvalidPath(err))

	// Context fallback for router middlewares that stash params there
	req = httptest.NewRequest(http.MethodGet, "/orgs/org1/chats/chat1", nil)
	ctx := context.WithValue(req.Context(), "orgID", "org1")
	ctx = context.WithValue(ctx, "chatID", "chat1")
	path, err = extractor(req.WithContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, "organizations/org1/chats/chat1", path)

	// Odd pair count is rejected
	_, err = PathFromParams("organizations")(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, IsInvalidPath(err))
}

// TestPathExtractors tests the query, header and static extractors
func TestPathExtractors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/access?path=a/1", nil)
	path, err := PathFromQuery("path")(req)
	require.NoError(t, err)
	assert.Equal(t, "a/1", path)

	_, err = PathFromQuery("missing")(req)
	assert.True(t, IsInvalidPath(err))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Resource-Path", "a/1")
	path, err = PathFromHeader("X-Resource-Path")(req)
	require.NoError(t, err)
	assert.Equal(t, "a/1", path)

	_, err = PathFromHeader("X-Missing")(req)
	assert.True(t, IsInvalidPath(err))

	path, err = StaticPath("global/settings")(req)
	require.NoError(t, err)
	assert.Equal(t, "global/settings", path)
}

// TestRequireExisting tests the existence-gating middleware
func TestRequireExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetDocument(ctx, "chats/c1", map[string]any{"createdBy": "u1"}))

	mw := NewMiddleware(NewEvaluator(store))
	var called bool
	handler := mw.RequireExisting(PathFromQuery("path"))(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?path=chats/c1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)

	called = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?path=chats/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, called)
}

// TestLoadChecker tests optional checker loading
func TestLoadChecker(t *testing.T) {
	mw := NewMiddleware(NewEvaluator(NewMemoryStore()))

	var checker *Checker
	var reached bool
	handler := mw.LoadChecker()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		checker = FromContext(r.Context())
	}))

	// With a user, the checker is present
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, reached)
	require.NotNil(t, checker)
	assert.Equal(t, "u1", checker.UserID())

	// Without a user, the handler still runs, checker absent
	reached, checker = false, nil
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, reached)
	assert.Nil(t, checker)
}

// TestInjectAuditContext tests request metadata extraction
func TestInjectAuditContext(t *testing.T) {
	mw := NewMiddleware(NewEvaluator(NewMemoryStore()))

	var audit AuditContext
	var userID string
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		audit = GetAuditContext(r.Context())
		userID = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Request-ID", "req-1")
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", audit.IPAddress)
	assert.Equal(t, "test-agent", audit.UserAgent)
	assert.Equal(t, "req-1", audit.RequestID)
	assert.Equal(t, "u1", audit.ActorID)
	assert.Equal(t, "u1", userID)

	// Falls back to RemoteAddr without forwarding headers
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, req.RemoteAddr, audit.IPAddress)
}
