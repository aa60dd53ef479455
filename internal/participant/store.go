package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/apperrors"
)

var _ Store = (*store)(nil)

// store handles participant database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new participant Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

const selectParticipant = `
	SELECT id, display_name, gender, age, gender_sought, age_range_min, age_range_max,
		location, bio, created_at, updated_at
	FROM participants`

// GetParticipant retrieves a participant by ID.
func (s *store) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectParticipant+` WHERE id = ?`, id)
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("participant %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// Upsert creates the participant or replaces its profile, keeping the original creation time.
func (s *store) Upsert(ctx context.Context, p Participant) (*Participant, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	query := `
		INSERT INTO participants (
			id, display_name, gender, age, gender_sought, age_range_min, age_range_max,
			location, bio, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			gender = excluded.gender,
			age = excluded.age,
			gender_sought = excluded.gender_sought,
			age_range_min = excluded.age_range_min,
			age_range_max = excluded.age_range_max,
			location = excluded.location,
			bio = excluded.bio,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.DisplayName, p.Gender, p.Age, p.GenderSought, p.AgeRangeMin, p.AgeRangeMax,
		p.Location, p.Bio, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert participant: %w", err)
	}

	row := s.db.QueryRowContext(ctx, selectParticipant+` WHERE id = ?`, p.ID)
	saved, err := scanParticipant(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reload participant: %w", err)
	}
	log.Info("Upserted participant", "participant_id", saved.ID, "name", saved.DisplayName)
	return saved, nil
}

// GetAll returns every participant ordered by display name.
func (s *store) GetAll(ctx context.Context) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectParticipant+` ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func scanParticipant(scanner interface{ Scan(...any) error }) (*Participant, error) {
	var p Participant
	var createdAt, updatedAt int64
	err := scanner.Scan(
		&p.ID,
		&p.DisplayName,
		&p.Gender,
		&p.Age,
		&p.GenderSought,
		&p.AgeRangeMin,
		&p.AgeRangeMax,
		&p.Location,
		&p.Bio,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(0, createdAt)
	p.UpdatedAt = time.Unix(0, updatedAt)
	return &p, nil
}
