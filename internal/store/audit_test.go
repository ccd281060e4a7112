package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/hmansour/medilabel/internal/database"
	"github.com/hmansour/medilabel/internal/model"
)

func setupAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuditStore(db)
}

func sampleEntries(sessionID string, ts time.Time, n int) []model.AuditEntry {
	entries := make([]model.AuditEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, model.AuditEntry{
			ID:              fmt.Sprintf("%s-%d", sessionID, i),
			Timestamp:       ts,
			PrintSessionID:  sessionID,
			Seq:             i,
			PatientID:       "12345",
			PatientYear:     "24",
			PatientName:     "Ahmed Hassan",
			DrugName:        "Drug",
			InstructionText: "Take one",
			PrintedBy:       "Sara Mahmoud",
			RequiresExpiry:  true,
			PrintQuantity:   1,
			Status:          "printed",
			BasketPreserved: true,
		})
	}
	return entries
}

func TestAppendAndListAll(t *testing.T) {
	s := setupAuditStore(t)
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if err := s.Append(sampleEntries("s1", t1, 2)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(sampleEntries("s2", t2, 1)); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := s.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].PrintSessionID != "s1" || entries[2].PrintSessionID != "s2" {
		t.Error("entries not ordered oldest first")
	}
	if !entries[0].BasketPreserved || !entries[0].RequiresExpiry {
		t.Error("bool columns lost on round trip")
	}
}

// Entries of one print session share a timestamp, so ordering must come
// from the numeric sequence. Past nine lines the id suffix sorts wrong
// lexicographically ("s1-10" before "s1-2").
func TestListAllKeepsBasketOrderPastTenLines(t *testing.T) {
	s := setupAuditStore(t)
	ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := s.Append(sampleEntries("s1", ts, 12)); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := s.ListAll()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("entries = %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != i {
			t.Fatalf("entry %d has seq %d, out of basket order", i, e.Seq)
		}
		if want := fmt.Sprintf("s1-%d", i); e.ID != want {
			t.Errorf("entry %d id = %q, want %q", i, e.ID, want)
		}
	}
}

func TestListRecent(t *testing.T) {
	s := setupAuditStore(t)
	t1 := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	s.Append(sampleEntries("s1", t1, 2))
	s.Append(sampleEntries("s2", t1.Add(time.Hour), 2))

	recent, err := s.ListRecent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent = %d", len(recent))
	}
	if recent[0].PrintSessionID != "s2" {
		t.Error("recent should be newest first")
	}
}

func TestFromGroupNullable(t *testing.T) {
	s := setupAuditStore(t)
	ts := time.Now().UTC()
	entries := sampleEntries("s1", ts, 2)
	entries[1].FromGroup = "Post-Op"
	if err := s.Append(entries); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := s.ListAll()
	if got[0].FromGroup != "" {
		t.Errorf("fromGroup = %q, want empty", got[0].FromGroup)
	}
	if got[1].FromGroup != "Post-Op" {
		t.Errorf("fromGroup = %q", got[1].FromGroup)
	}
}

func TestCountAndClearAll(t *testing.T) {
	s := setupAuditStore(t)
	s.Append(sampleEntries("s1", time.Now().UTC(), 3))

	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d", count)
	}

	removed, err := s.ClearAll()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d", removed)
	}
	count, _ = s.Count()
	if count != 0 {
		t.Errorf("count after clear = %d", count)
	}
}
