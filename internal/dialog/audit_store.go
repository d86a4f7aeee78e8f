package dialog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditStore persists completed calls and their turns to PostgreSQL for
// long-term audit and display. The engine never reads from it; it is
// write-mostly and a nil store is a no-op.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates an audit store. Returns nil when db is nil so
// callers can wire it unconditionally.
func NewAuditStore(db *sql.DB) *AuditStore {
	if db == nil {
		return nil
	}
	return &AuditStore{db: db}
}

// CallRecord is one call row.
type CallRecord struct {
	ID             uuid.UUID
	CallID         string
	Mode           string
	Language       string
	FinalState     string
	PatientName    string
	Phone          string
	DoctorName     string
	Department     string
	PreferredTime  string
	ConfirmationID string
	Transferred    bool
	TransferReason string
	StartedAt      time.Time
	EndedAt        sql.NullTime
}

// EnsureCall upserts the call row and returns its UUID.
func (s *AuditStore) EnsureCall(ctx context.Context, sess *Session) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, nil
	}
	id := uuid.New()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO calls (id, call_id, mode, language, final_state, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (call_id) DO UPDATE SET
			language = EXCLUDED.language,
			final_state = EXCLUDED.final_state
		RETURNING id`,
		id, sess.CallID, string(sess.Mode), string(sess.Language), string(sess.State), sess.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("audit: ensure call: %w", err)
	}
	return id, nil
}

// SaveTurn appends one user/assistant exchange for the call.
func (s *AuditStore) SaveTurn(ctx context.Context, callID string, entry TranscriptEntry) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_turns (id, call_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), callID, entry.Role, entry.Content, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("audit: save turn: %w", err)
	}
	return nil
}

// FinishCall records the final slots and outcome when the call ends.
func (s *AuditStore) FinishCall(ctx context.Context, sess *Session, transferred bool, transferReason string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE calls SET
			language = $2,
			final_state = $3,
			patient_name = $4,
			phone = $5,
			doctor_name = $6,
			department = $7,
			preferred_time = $8,
			confirmation_id = $9,
			transferred = $10,
			transfer_reason = $11,
			ended_at = $12
		WHERE call_id = $1`,
		sess.CallID, string(sess.Language), string(sess.State),
		sess.Slots.PatientName, sess.Slots.Phone, sess.Slots.DoctorName,
		sess.Slots.Department, sess.Slots.PreferredTime, sess.Slots.ConfirmationID,
		transferred, transferReason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("audit: finish call: %w", err)
	}
	return nil
}

// GetCall fetches one call row by its carrier call ID.
func (s *AuditStore) GetCall(ctx context.Context, callID string) (*CallRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rec CallRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, call_id, mode, language, final_state,
			COALESCE(patient_name, ''), COALESCE(phone, ''), COALESCE(doctor_name, ''),
			COALESCE(department, ''), COALESCE(preferred_time, ''), COALESCE(confirmation_id, ''),
			COALESCE(transferred, false), COALESCE(transfer_reason, ''), started_at, ended_at
		FROM calls WHERE call_id = $1`,
		callID,
	).Scan(
		&rec.ID, &rec.CallID, &rec.Mode, &rec.Language, &rec.FinalState,
		&rec.PatientName, &rec.Phone, &rec.DoctorName,
		&rec.Department, &rec.PreferredTime, &rec.ConfirmationID,
		&rec.Transferred, &rec.TransferReason, &rec.StartedAt, &rec.EndedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: get call: %w", err)
	}
	return &rec, nil
}

// ListTurns returns the persisted transcript for a call in turn order.
func (s *AuditStore) ListTurns(ctx context.Context, callID string) ([]TranscriptEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, created_at
		FROM call_turns WHERE call_id = $1
		ORDER BY created_at ASC`,
		callID,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list turns: %w", err)
	}
	defer rows.Close()

	var out []TranscriptEntry
	for rows.Next() {
		var entry TranscriptEntry
		if err := rows.Scan(&entry.Role, &entry.Content, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("audit: scan turn: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
