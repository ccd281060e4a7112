// Package audit maintains the append-only print log and its CSV export.
package audit

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

var ErrNoEntries = errors.New("no audit entries")

// Recorder appends print records to the audit log. One print action yields
// one entry per basket line (not per label copy), all sharing a print
// session id and timestamp.
type Recorder struct {
	entries *store.AuditStore
	logger  *slog.Logger
}

func NewRecorder(entries *store.AuditStore, logger *slog.Logger) *Recorder {
	return &Recorder{
		entries: entries,
		logger:  logger.With("component", "audit"),
	}
}

// Record writes audit entries for a completed print run and returns them.
// Entry ids are the session id suffixed with the line's basket position.
func (r *Recorder) Record(items []model.LineItem, patient *model.Patient, user model.User, now time.Time) ([]model.AuditEntry, string, error) {
	sessionID := uuid.NewString()
	timestamp := now.UTC()

	entries := make([]model.AuditEntry, 0, len(items))
	for i, item := range items {
		entries = append(entries, model.AuditEntry{
			ID:              fmt.Sprintf("%s-%d", sessionID, i),
			Timestamp:       timestamp,
			PrintSessionID:  sessionID,
			Seq:             i,
			PatientID:       patient.PatientID,
			PatientYear:     patient.Year,
			PatientName:     patient.PatientName,
			DrugName:        item.DrugName,
			InstructionText: item.InstructionText,
			PrintedBy:       user.FullName,
			ExpiryDate:      item.ExpiryDate,
			RequiresExpiry:  item.RequiresExpiry,
			PrintQuantity:   item.PrintQuantity,
			Status:          "printed",
			BasketPreserved: true,
			FromGroup:       item.FromGroup,
		})
	}

	if err := r.entries.Append(entries); err != nil {
		return nil, "", fmt.Errorf("append audit entries: %w", err)
	}
	r.logger.Info("recorded print session",
		"session", sessionID,
		"entries", len(entries),
		"patient", patient.MRN(),
		"user", user.Username)
	return entries, sessionID, nil
}
