package slot

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

// store handles slot database operations. Built on a *sql.Tx it takes part
// in the caller's transaction.
type store struct {
	db  database.DBTX
	now func() time.Time
}

// Option configures a store.
type Option func(*store)

// WithClock overrides the clock used for creation and update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *store) { s.now = now }
}

// New creates a new slot Store.
func New(db database.DBTX, opts ...Option) Store {
	s := &store{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const selectSlot = `
	SELECT id, participant_id, date, time, location, status, created_at, updated_at
	FROM time_slots`

// BookSlot returns the existing waiting slot for the key or creates one.
// The upsert targets the partial unique index on waiting slots, so a
// concurrent identical booking resolves to the same row in one statement.
func (s *store) BookSlot(ctx context.Context, participantID string, key Key) (*Slot, bool, error) {
	// Same precision and location as a row read back from the table.
	now := time.Unix(0, s.now().UnixNano())
	id := uuid.New().String()

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO time_slots (id, participant_id, date, time, location, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (participant_id, date, time, location) WHERE status = 'waiting'
		DO UPDATE SET updated_at = time_slots.updated_at
		RETURNING id, participant_id, date, time, location, status, created_at, updated_at`,
		id, participantID, key.Date, key.Time, key.Location,
		string(StatusWaiting), now.UnixNano(), now.UnixNano(),
	)
	booked, err := scanSlot(row)
	if err != nil {
		return nil, false, fmt.Errorf("failed to book slot: %w", err)
	}
	if booked.ID != id {
		log.Debug("Reusing waiting slot", "slot_id", booked.ID, "participant_id", participantID, "key", key)
		return booked, false, nil
	}
	log.Info("Created slot", "slot_id", booked.ID, "participant_id", participantID, "key", key)
	return booked, true, nil
}

// CancelSlot cancels a waiting slot owned by participantID.
func (s *store) CancelSlot(ctx context.Context, slotID, participantID string) error {
	row := s.db.QueryRowContext(ctx, selectSlot+` WHERE id = ? AND participant_id = ?`, slotID, participantID)
	current, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("slot %s for participant %s: %w", slotID, participantID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to get slot: %w", err)
	}
	if current.Status.Terminal() {
		return fmt.Errorf("slot %s is %s: %w", slotID, current.Status, apperrors.ErrInvalidState)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE time_slots SET status = ?, updated_at = ?
		WHERE id = ? AND participant_id = ? AND status = ?`,
		string(StatusCancelled), s.now().UnixNano(), slotID, participantID, string(StatusWaiting),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel slot: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if updated == 0 {
		// Claimed by a match between the read and the write.
		return fmt.Errorf("slot %s is no longer waiting: %w", slotID, apperrors.ErrInvalidState)
	}

	log.Info("Cancelled slot", "slot_id", slotID, "participant_id", participantID)
	return nil
}

// GetSlot retrieves a slot by ID.
func (s *store) GetSlot(ctx context.Context, slotID string) (*Slot, error) {
	row := s.db.QueryRowContext(ctx, selectSlot+` WHERE id = ?`, slotID)
	found, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("slot %s: %w", slotID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return found, nil
}

// WaitingSlotsFor lists a participant's waiting slots, oldest first.
func (s *store) WaitingSlotsFor(ctx context.Context, participantID string) ([]Slot, error) {
	return s.query(ctx, selectSlot+`
		WHERE participant_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC`,
		participantID, string(StatusWaiting),
	)
}

// WaitingInPool lists the waiting slots of other participants for key.
// created_at is the FIFO key and id breaks ties deterministically.
func (s *store) WaitingInPool(ctx context.Context, key Key, excludeParticipantID string) ([]Slot, error) {
	return s.query(ctx, selectSlot+`
		WHERE date = ? AND time = ? AND location = ? AND status = ? AND participant_id != ?
		ORDER BY created_at ASC, id ASC`,
		key.Date, key.Time, key.Location, string(StatusWaiting), excludeParticipantID,
	)
}

// Seal moves a waiting slot to matched.
func (s *store) Seal(ctx context.Context, slotID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE time_slots SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusMatched), s.now().UnixNano(), slotID, string(StatusWaiting),
	)
	if err != nil {
		return fmt.Errorf("failed to seal slot: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("slot %s is no longer waiting: %w", slotID, apperrors.ErrConflict)
	}
	return nil
}

// Clear removes every slot.
func (s *store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM time_slots`); err != nil {
		return fmt.Errorf("failed to clear slots: %w", err)
	}
	log.Info("Cleared all slots")
	return nil
}

func (s *store) query(ctx context.Context, query string, args ...any) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		found, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot row: %w", err)
		}
		slots = append(slots, *found)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slot rows: %w", err)
	}
	return slots, nil
}

func scanSlot(scanner interface{ Scan(...any) error }) (*Slot, error) {
	var found Slot
	var status string
	var createdAt, updatedAt int64
	err := scanner.Scan(
		&found.ID,
		&found.ParticipantID,
		&found.Date,
		&found.Time,
		&found.Location,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	found.Status = Status(status)
	found.CreatedAt = time.Unix(0, createdAt)
	found.UpdatedAt = time.Unix(0, updatedAt)
	return &found, nil
}
