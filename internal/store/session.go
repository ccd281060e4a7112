package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hmansour/medilabel/internal/model"
)

// SessionStore holds local login sessions. A session carries the identity
// the backend returned on login plus the session's active patient; the
// basket is deliberately not session-scoped.
type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{db: db, ttl: ttl}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var patientID, patientYear, patientName, nationalID sql.NullString

	err := scanner.Scan(
		&s.ID, &s.Token, &s.UserID, &s.Username, &s.FullName, &s.AccessLevel,
		&s.APIToken, &patientID, &patientYear, &patientName, &nationalID,
		&s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if patientID.Valid {
		p := model.Patient{
			PatientID:   patientID.String,
			Year:        patientYear.String,
			PatientName: patientName.String,
			NationalID:  nationalID.String,
		}
		p.FullID = p.PatientID + "/" + p.Year
		s.Patient = &p
	}
	return &s, nil
}

const sessionCols = `id, token, user_id, username, full_name, access_level, api_token, patient_id, patient_year, patient_name, national_id, expires_at, created_at`

// Create opens a session for a freshly logged-in user with a crypto-random
// token. expiresAt caps the lifetime when the backend token expires sooner
// than the configured TTL; pass the zero time to use the TTL alone.
func (s *SessionStore) Create(user model.User, apiToken string, expiresAt time.Time) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	expiry := time.Now().UTC().Add(s.ttl)
	if !expiresAt.IsZero() && expiresAt.Before(expiry) {
		expiry = expiresAt.UTC()
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, user_id, username, full_name, access_level, api_token, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token, user.ID, user.Username, user.FullName, user.AccessLevel, apiToken, expiry,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired or
// not found.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// SetPatient replaces the session's active patient. Passing nil clears it;
// either way the basket is untouched.
func (s *SessionStore) SetPatient(sessionID int64, p *model.Patient) error {
	var patientID, patientYear, patientName, nationalID sql.NullString
	if p != nil {
		patientID = sql.NullString{String: p.PatientID, Valid: true}
		patientYear = sql.NullString{String: p.Year, Valid: true}
		patientName = sql.NullString{String: p.PatientName, Valid: true}
		nationalID = sql.NullString{String: p.NationalID, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE sessions SET patient_id = ?, patient_year = ?, patient_name = ?, national_id = ? WHERE id = ?`,
		patientID, patientYear, patientName, nationalID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("set session patient: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes stale sessions and returns how many were dropped.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
