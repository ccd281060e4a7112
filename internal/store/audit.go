package store

import (
	"database/sql"
	"fmt"

	"github.com/hmansour/medilabel/internal/model"
)

// AuditStore is the append-only log of printed labels. Entries are inserted
// in batches (one print action each), listed oldest first, and only ever
// removed by ClearAll.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func scanAuditEntry(scanner interface{ Scan(...any) error }) (*model.AuditEntry, error) {
	var e model.AuditEntry
	var requiresExpiry, basketPreserved int
	var fromGroup sql.NullString

	err := scanner.Scan(
		&e.ID, &e.PrintSessionID, &e.Seq, &e.Timestamp, &e.PatientID, &e.PatientYear,
		&e.PatientName, &e.DrugName, &e.InstructionText, &e.PrintedBy,
		&e.ExpiryDate, &requiresExpiry, &e.PrintQuantity, &e.Status,
		&basketPreserved, &fromGroup,
	)
	if err != nil {
		return nil, err
	}

	e.RequiresExpiry = requiresExpiry != 0
	e.BasketPreserved = basketPreserved != 0
	if fromGroup.Valid {
		e.FromGroup = fromGroup.String
	}
	return &e, nil
}

const auditCols = `id, print_session_id, seq, ts, patient_id, patient_year, patient_name, drug_name, instruction_text, printed_by, expiry_date, requires_expiry, print_quantity, status, basket_preserved, from_group`

// Append inserts a batch of entries in one transaction. Either the whole
// print action is recorded or none of it is.
func (s *AuditStore) Append(entries []model.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO audit_entries (` + auditCols + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var fromGroup sql.NullString
		if e.FromGroup != "" {
			fromGroup = sql.NullString{String: e.FromGroup, Valid: true}
		}
		_, err := stmt.Exec(
			e.ID, e.PrintSessionID, e.Seq, e.Timestamp.UTC(), e.PatientID, e.PatientYear,
			e.PatientName, e.DrugName, e.InstructionText, e.PrintedBy,
			e.ExpiryDate, boolToInt(e.RequiresExpiry), e.PrintQuantity, e.Status,
			boolToInt(e.BasketPreserved), fromGroup,
		)
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// ListAll returns every entry, oldest first. Entries sharing a timestamp
// keep their basket order.
func (s *AuditStore) ListAll() ([]model.AuditEntry, error) {
	rows, err := s.db.Query(`SELECT ` + auditCols + ` FROM audit_entries ORDER BY ts ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListRecent returns the newest n entries, newest first.
func (s *AuditStore) ListRecent(n int) ([]model.AuditEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+auditCols+` FROM audit_entries ORDER BY ts DESC, seq DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *AuditStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

// ClearAll deletes the entire log and returns how many entries were removed.
func (s *AuditStore) ClearAll() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM audit_entries`)
	if err != nil {
		return 0, fmt.Errorf("clear audit entries: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
