package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/database"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

func setupSessions(t *testing.T) *store.SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db, time.Hour)
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	sessions := setupSessions(t)
	sess, err := sessions.Create(model.User{ID: 7, Username: "sara", FullName: "Sara Mahmoud", AccessLevel: "admin"}, "tok", time.Time{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got auth.Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/basket", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	RequireAuth(sessions)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.User.Username != "sara" || got.SessionID != sess.ID {
		t.Errorf("context = %+v", got)
	}
}

// A second login must not change which backend identity the first session's
// requests carry.
func TestRequireAuthAttachesSessionToken(t *testing.T) {
	sessions := setupSessions(t)
	alice, err := sessions.Create(model.User{ID: 1, Username: "alice", FullName: "Alice", AccessLevel: "user"}, "tok-alice", time.Time{})
	if err != nil {
		t.Fatalf("create alice session: %v", err)
	}
	bob, err := sessions.Create(model.User{ID: 2, Username: "bob", FullName: "Bob", AccessLevel: "user"}, "tok-bob", time.Time{})
	if err != nil {
		t.Fatalf("create bob session: %v", err)
	}

	var got string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "medications": []any{}})
	}))
	t.Cleanup(backend.Close)

	gw := gateway.New(backend.URL)
	handler := RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := gw.Medications(r.Context()); err != nil {
			t.Fatalf("medications: %v", err)
		}
	}))

	serve := func(token string) string {
		req := httptest.NewRequest(http.MethodGet, "/api/medications", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		return got
	}

	if h := serve(bob.Token); h != "Bearer tok-bob" {
		t.Errorf("bob's request carried %q", h)
	}
	if h := serve(alice.Token); h != "Bearer tok-alice" {
		t.Errorf("alice's request carried %q", h)
	}
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	sessions := setupSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/api/basket", nil)
	rec := httptest.NewRecorder()
	RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	sessions := setupSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/api/basket", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func levelRequest(level string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", nil)
	ctx := auth.WithContext(req.Context(), auth.Context{
		SessionID: 1,
		User:      model.User{ID: 1, Username: "u", AccessLevel: level},
	})
	return req.WithContext(ctx)
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		level string
		want  int
	}{
		{model.AccessLevelAdmin, http.StatusOK},
		{model.AccessLevelManager, http.StatusForbidden},
		{model.AccessLevelUser, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
			ServeHTTP(rec, levelRequest(tc.level))
		if rec.Code != tc.want {
			t.Errorf("level %s: status = %d, want %d", tc.level, rec.Code, tc.want)
		}
	}
}

func TestRequireDrugManager(t *testing.T) {
	cases := []struct {
		level string
		want  int
	}{
		{model.AccessLevelAdmin, http.StatusOK},
		{model.AccessLevelManager, http.StatusOK},
		{model.AccessLevelUser, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RequireDrugManager(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
			ServeHTTP(rec, levelRequest(tc.level))
		if rec.Code != tc.want {
			t.Errorf("level %s: status = %d, want %d", tc.level, rec.Code, tc.want)
		}
	}
}

func TestLoginLimiter(t *testing.T) {
	limiter := NewLoginLimiter(time.Hour, 2)
	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if hit("10.0.0.1:1234") != http.StatusOK || hit("10.0.0.1:1234") != http.StatusOK {
		t.Fatal("first two attempts should pass")
	}
	if hit("10.0.0.1:1234") != http.StatusTooManyRequests {
		t.Error("third attempt should be limited")
	}
	if hit("10.0.0.2:1234") != http.StatusOK {
		t.Error("other addresses should be unaffected")
	}
}
