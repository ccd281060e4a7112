package model

import "time"

// AuditEntry is one immutable record of a printed basket line. Entries from
// the same print action share a PrintSessionID and timestamp; Seq is the
// line's basket position and keeps listings in basket order, since the id
// suffix sorts lexicographically past nine lines. They are never mutated or
// individually deleted; the log is only ever bulk-cleared.
type AuditEntry struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	PrintSessionID  string    `json:"printSessionId"`
	Seq             int       `json:"-"`
	PatientID       string    `json:"patientId"`
	PatientYear     string    `json:"patientYear"`
	PatientName     string    `json:"patientName"`
	DrugName        string    `json:"drugName"`
	InstructionText string    `json:"instructionText"`
	PrintedBy       string    `json:"printedBy"`
	ExpiryDate      string    `json:"expiryDate"`
	RequiresExpiry  bool      `json:"requiresExpiryDate"`
	PrintQuantity   int       `json:"printQuantity"`
	Status          string    `json:"status"`
	BasketPreserved bool      `json:"basketPreserved"`
	FromGroup       string    `json:"fromGroup,omitempty"`
}
