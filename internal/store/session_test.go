package store

import (
	"testing"
	"time"

	"github.com/hmansour/medilabel/internal/database"
	"github.com/hmansour/medilabel/internal/model"
)

func setupSessionStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db, ttl)
}

func testSessionUser() model.User {
	return model.User{ID: 7, Username: "sara", FullName: "Sara Mahmoud", AccessLevel: "manager"}
}

func TestSessionCreateAndGet(t *testing.T) {
	s := setupSessionStore(t, time.Hour)

	sess, err := s.Create(testSessionUser(), "api-token", time.Time{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.Username != "sara" || got.AccessLevel != "manager" || got.APIToken != "api-token" {
		t.Errorf("session = %+v", got)
	}
	if got.Patient != nil {
		t.Error("new session should have no patient")
	}
}

func TestSessionExpiryCappedByToken(t *testing.T) {
	s := setupSessionStore(t, 24*time.Hour)

	tokenExpiry := time.Now().Add(time.Minute)
	sess, err := s.Create(testSessionUser(), "t", tokenExpiry)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ExpiresAt.After(tokenExpiry.Add(time.Second)) {
		t.Errorf("session outlives backend token: %v > %v", sess.ExpiresAt, tokenExpiry)
	}
}

func TestSessionSetPatient(t *testing.T) {
	s := setupSessionStore(t, time.Hour)
	sess, _ := s.Create(testSessionUser(), "t", time.Time{})

	p := &model.Patient{PatientID: "12345", Year: "24", PatientName: "Ahmed Hassan", NationalID: "299010"}
	if err := s.SetPatient(sess.ID, p); err != nil {
		t.Fatalf("set patient: %v", err)
	}

	got, _ := s.GetByToken(sess.Token)
	if got.Patient == nil {
		t.Fatal("expected patient")
	}
	if got.Patient.FullID != "12345/24" {
		t.Errorf("fullId = %q", got.Patient.FullID)
	}

	if err := s.SetPatient(sess.ID, nil); err != nil {
		t.Fatalf("clear patient: %v", err)
	}
	got, _ = s.GetByToken(sess.Token)
	if got.Patient != nil {
		t.Error("patient should be cleared")
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	s := setupSessionStore(t, time.Hour)
	got, err := s.GetByToken("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionExpired(t *testing.T) {
	s := setupSessionStore(t, time.Hour)
	sess, _ := s.Create(testSessionUser(), "t", time.Now().Add(-time.Minute))

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired session should resolve to nil")
	}

	removed, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d", removed)
	}
}

func TestSessionDelete(t *testing.T) {
	s := setupSessionStore(t, time.Hour)
	sess, _ := s.Create(testSessionUser(), "t", time.Time{})

	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := s.GetByToken(sess.Token)
	if got != nil {
		t.Error("deleted session still resolves")
	}
}
