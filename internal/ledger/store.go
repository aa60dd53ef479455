package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/tonight/internal/apperrors"
	"github.com/mauv0809/tonight/internal/database"
)

var _ Store = (*store)(nil)

type store struct {
	db  database.DBTX
	now func() time.Time
}

// New creates a new ledger Store. Built on a *sql.Tx it records matches in
// the caller's transaction.
func New(db database.DBTX) Store {
	return &store{db: db, now: time.Now}
}

const selectMatch = `
	SELECT id, initiator_id, counterpart_id, slot_id, counterpart_slot_id, date, time, location, status, created_at
	FROM matches`

// RecordMatch inserts a match. ID, Status and CreatedAt are filled in when empty.
func (s *store) RecordMatch(ctx context.Context, m Match) (*Match, error) {
	if m.SlotID == m.CounterpartSlotID {
		return nil, fmt.Errorf("match pairs slot %s with itself: %w", m.SlotID, apperrors.ErrInvalidArgument)
	}

	var taken int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE slot_id IN (?, ?) OR counterpart_slot_id IN (?, ?)`,
		m.SlotID, m.CounterpartSlotID, m.SlotID, m.CounterpartSlotID,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing matches: %w", err)
	}
	if taken > 0 {
		return nil, fmt.Errorf("slots %s/%s: %w", m.SlotID, m.CounterpartSlotID, apperrors.ErrDuplicateSlot)
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = StatusMatched
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Unix(0, s.now().UnixNano())
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (id, initiator_id, counterpart_id, slot_id, counterpart_slot_id, date, time, location, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.InitiatorID, m.CounterpartID, m.SlotID, m.CounterpartSlotID,
		m.Date, m.Time, m.Location, m.Status, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	log.Info("Recorded match", "match_id", m.ID, "initiator_id", m.InitiatorID, "counterpart_id", m.CounterpartID)
	return &m, nil
}

func (s *store) MatchesFor(ctx context.Context, participantID string) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, selectMatch+`
		WHERE initiator_id = ? OR counterpart_id = ?
		ORDER BY created_at DESC, id DESC`,
		participantID, participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match rows: %w", err)
	}
	return matches, nil
}

func (s *store) MatchForSlot(ctx context.Context, slotID string) (*Match, error) {
	row := s.db.QueryRowContext(ctx, selectMatch+` WHERE slot_id = ? OR counterpart_slot_id = ?`, slotID, slotID)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match for slot %s: %w", slotID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

func (s *store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM matches`); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	log.Info("Cleared all matches")
	return nil
}

func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	var createdAt int64
	err := scanner.Scan(
		&m.ID,
		&m.InitiatorID,
		&m.CounterpartID,
		&m.SlotID,
		&m.CounterpartSlotID,
		&m.Date,
		&m.Time,
		&m.Location,
		&m.Status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = time.Unix(0, createdAt)
	return &m, nil
}
