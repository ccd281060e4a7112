package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["username"] != "sara" {
			t.Errorf("username = %q", req["username"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "tok-123",
			"user": map[string]any{
				"UserID": 7, "UserName": "sara", "FullName": "Sara Mahmoud", "AccessLevel": "manager",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Login(context.Background(), "sara", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "tok-123" {
		t.Errorf("token = %q", result.Token)
	}
	if result.User.Username != "sara" || result.User.AccessLevel != "manager" {
		t.Errorf("user = %+v", result.User)
	}
}

func TestRequestCarriesContextToken(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "medications": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Medications(WithToken(context.Background(), "tok-sara")); err != nil {
		t.Fatalf("medications: %v", err)
	}
	if authHeader != "Bearer tok-sara" {
		t.Errorf("auth header = %q", authHeader)
	}

	if _, err := c.Medications(context.Background()); err != nil {
		t.Fatalf("medications without token: %v", err)
	}
	if authHeader != "" {
		t.Errorf("auth header = %q, want none", authHeader)
	}
}

// Two sessions sharing one client must each keep their own backend identity,
// regardless of who logged in more recently.
func TestConcurrentSessionsKeepOwnTokens(t *testing.T) {
	seen := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Query().Get("patientId")] = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"patient": map[string]any{"PatientID": "1", "Year": "24", "PatientName": "x", "NationalID": ""},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	aliceCtx := WithToken(context.Background(), "tok-alice")
	bobCtx := WithToken(context.Background(), "tok-bob")

	if _, err := c.SearchPatient(bobCtx, "from-bob", "24"); err != nil {
		t.Fatalf("bob search: %v", err)
	}
	if _, err := c.SearchPatient(aliceCtx, "from-alice", "24"); err != nil {
		t.Fatalf("alice search: %v", err)
	}

	if got := seen["from-alice"]; got != "Bearer tok-alice" {
		t.Errorf("alice request carried %q", got)
	}
	if got := seen["from-bob"]; got != "Bearer tok-bob" {
		t.Errorf("bob request carried %q", got)
	}
}

func TestSuccessFalseBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "patient not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SearchPatient(context.Background(), "99999", "24")
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if gwErr.Message != "patient not found" {
		t.Errorf("message = %q", gwErr.Message)
	}
	if gwErr.Status != 0 {
		t.Errorf("status = %d, want 0 for 200 with success=false", gwErr.Status)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid credentials"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "sara", "wrong")
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v", err)
	}
	if gwErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", gwErr.Status)
	}
}

func TestSearchPatientBuildsFullID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("patientId"); got != "12345" {
			t.Errorf("patientId = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"patient": map[string]any{
				"PatientID": "12345", "Year": "24", "PatientName": "Ahmed Hassan", "NationalID": "299010",
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.SearchPatient(context.Background(), "12345", "24")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if p.FullID != "12345/24" {
		t.Errorf("fullId = %q", p.FullID)
	}
}

func TestGroupDetailsNormalizesExpiryFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"group": map[string]any{
				"groupId": 3, "groupName": "Post-Op", "drugCount": 3,
				"drugs": []map[string]any{
					{"DrugName": "A", "requires_expiry_date": "0"},
					{"DrugName": "B", "requires_expiry_date": 1},
					{"DrugName": "C"},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	detail, err := c.GroupDetails(context.Background(), 3)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if detail.Drugs[0].RequiresExpiry.Bool() {
		t.Error("string zero should not require expiry")
	}
	if !detail.Drugs[1].RequiresExpiry.Bool() {
		t.Error("numeric one should require expiry")
	}
	if !detail.Drugs[2].RequiresExpiry.Bool() {
		t.Error("absent flag should require expiry")
	}
}

func TestParseTokenClaims(t *testing.T) {
	// Unsigned-style JWT with alg none semantics is rejected by the parser,
	// so use a structurally valid HS256 token; the signature is never
	// checked.
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJyb2xlIjoiYWRtaW4iLCJleHAiOjQ4OTE2MzA0MDB9." +
		"c2lnbmF0dXJl"

	claims, err := ParseTokenClaims(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q", claims.Role)
	}
	if claims.ExpiresAt.IsZero() {
		t.Error("expected expiry claim")
	}
}
