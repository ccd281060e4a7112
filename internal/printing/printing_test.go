package printing

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hmansour/medilabel/internal/audit"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/database"
	"github.com/hmansour/medilabel/internal/expiry"
	"github.com/hmansour/medilabel/internal/label"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

func setup(t *testing.T) (*Orchestrator, *basket.Store, *store.AuditStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	b := basket.NewStore(store.NewSnapshotStore(db), logger)
	if err := b.Load(); err != nil {
		t.Fatalf("load basket: %v", err)
	}
	auditStore := store.NewAuditStore(db)
	o := NewOrchestrator(
		b,
		label.NewGenerator("Test Pharmacy"),
		audit.NewRecorder(auditStore, logger),
		logger,
	)
	return o, b, auditStore
}

func testPatient() *model.Patient {
	return &model.Patient{PatientID: "12345", Year: "24", PatientName: "Ahmed Hassan", FullID: "12345/24"}
}

func testUser() model.User {
	return model.User{ID: 1, Username: "sara", FullName: "Sara Mahmoud"}
}

func TestPrintEmptyBasket(t *testing.T) {
	o, _, _ := setup(t)
	if _, err := o.Print(testPatient(), testUser(), time.Now()); !errors.Is(err, basket.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestPrintNoPatient(t *testing.T) {
	o, _, _ := setup(t)
	if _, err := o.Print(nil, testUser(), time.Now()); !errors.Is(err, basket.ErrNoPatientSelected) {
		t.Fatalf("err = %v, want ErrNoPatientSelected", err)
	}
}

func TestPrintBlocksOnMissingExpiry(t *testing.T) {
	o, b, auditStore := setup(t)
	b.Add(testPatient(), model.Drug{DrugName: "Insulin", RequiresExpiry: expiry.FlagOf(true)}, "")
	b.Add(testPatient(), model.Drug{DrugName: "Amoxicillin", RequiresExpiry: expiry.FlagOf(true)}, "")
	b.Add(testPatient(), model.Drug{DrugName: "Gauze", RequiresExpiry: expiry.FlagOf(false)}, "")

	_, err := o.Print(testPatient(), testUser(), time.Now())
	var missing *MissingExpiryError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingExpiryError", err)
	}
	if len(missing.Drugs) != 2 {
		t.Fatalf("offenders = %v, want both dated drugs", missing.Drugs)
	}
	if missing.Drugs[0] != "Insulin" || missing.Drugs[1] != "Amoxicillin" {
		t.Errorf("offenders = %v, want basket order", missing.Drugs)
	}

	count, _ := auditStore.Count()
	if count != 0 {
		t.Error("blocked print must not write audit entries")
	}
}

func TestPrintHappyPath(t *testing.T) {
	o, b, auditStore := setup(t)

	item, _ := b.Add(testPatient(), model.Drug{
		DrugName:       "Paracetamol",
		Instruction:    "Take one tablet daily",
		RequiresExpiry: expiry.FlagOf(true),
	}, "")
	b.SetExpiryMonth(item.ID, "01")
	b.SetExpiryYear(item.ID, "26")

	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	result, err := o.Print(testPatient(), testUser(), now)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if result.LabelCount != 1 {
		t.Errorf("labels = %d, want 1", result.LabelCount)
	}
	if result.EntryCount != 1 {
		t.Errorf("entries = %d, want 1", result.EntryCount)
	}
	if result.PrintSessionID == "" {
		t.Error("missing print session id")
	}
	if !strings.Contains(result.HTML, "01/2026") {
		t.Error("rendered label missing widened expiry")
	}

	entries, _ := auditStore.ListAll()
	if len(entries) != 1 {
		t.Fatalf("stored entries = %d", len(entries))
	}
	if entries[0].ExpiryDate != "01/26" {
		t.Errorf("audit expiry = %q, want raw 01/26", entries[0].ExpiryDate)
	}
}

func TestPrintPreservesBasket(t *testing.T) {
	o, b, _ := setup(t)
	b.Add(testPatient(), model.Drug{DrugName: "Gauze", RequiresExpiry: expiry.FlagOf(false)}, "")

	if _, err := o.Print(testPatient(), testUser(), time.Now()); err != nil {
		t.Fatalf("print: %v", err)
	}
	if len(b.Items()) != 1 {
		t.Fatal("print must not clear the basket")
	}

	// Repeat print works without touching anything.
	if _, err := o.Print(testPatient(), testUser(), time.Now()); err != nil {
		t.Fatalf("repeat print: %v", err)
	}
}
