// Package printing coordinates a print run: expiry gating, label
// generation, and audit recording. The basket is deliberately left intact
// afterwards so repeat prints need no re-entry.
package printing

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hmansour/medilabel/internal/audit"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/label"
	"github.com/hmansour/medilabel/internal/model"
)

// MissingExpiryError blocks a print because some lines that require an
// expiry date have none set. Drugs lists the offenders by name.
type MissingExpiryError struct {
	Drugs []string
}

func (e *MissingExpiryError) Error() string {
	return "missing expiry dates for: " + strings.Join(e.Drugs, ", ")
}

// Result is a completed print run.
type Result struct {
	HTML           string
	LabelCount     int
	EntryCount     int
	PrintSessionID string
}

type Orchestrator struct {
	basket    *basket.Store
	generator *label.Generator
	recorder  *audit.Recorder
	logger    *slog.Logger
}

func NewOrchestrator(b *basket.Store, g *label.Generator, r *audit.Recorder, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		basket:    b,
		generator: g,
		recorder:  r,
		logger:    logger.With("component", "printing"),
	}
}

// Print runs the full pipeline for the current basket. It refuses an empty
// basket and refuses while any required expiry date is missing; on success
// the labels are rendered and every line is audited under one session.
func (o *Orchestrator) Print(patient *model.Patient, user model.User, now time.Time) (*Result, error) {
	if patient == nil {
		return nil, basket.ErrNoPatientSelected
	}

	items := o.basket.Items()
	if len(items) == 0 {
		return nil, basket.ErrEmpty
	}
	if missing := o.basket.MissingRequiredExpiry(); len(missing) > 0 {
		return nil, &MissingExpiryError{Drugs: missing}
	}

	labels, err := o.generator.Generate(items, patient, user, now)
	if err != nil {
		return nil, fmt.Errorf("generate labels: %w", err)
	}
	html, err := o.generator.RenderHTML(labels)
	if err != nil {
		return nil, fmt.Errorf("render labels: %w", err)
	}

	entries, sessionID, err := o.recorder.Record(items, patient, user, now)
	if err != nil {
		return nil, err
	}

	o.logger.Info("print completed",
		"session", sessionID,
		"labels", len(labels),
		"lines", len(entries))
	return &Result{
		HTML:           html,
		LabelCount:     len(labels),
		EntryCount:     len(entries),
		PrintSessionID: sessionID,
	}, nil
}
