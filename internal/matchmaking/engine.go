package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/apperrors"
	"github.com/mauv0809/tonight/internal/database"
	"github.com/mauv0809/tonight/internal/ledger"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/slot"
)

// DefaultMaxAttempts bounds the search/claim loop when counterparts keep
// being taken by concurrent bookings.
const DefaultMaxAttempts = 3

var (
	errOwnSlotLost         = errors.New("own slot no longer waiting")
	errCounterpartSlotLost = errors.New("counterpart slot no longer waiting")
)

var _ Service = (*Engine)(nil)

// Engine books slots and pairs them. Candidate search runs outside any
// transaction. Claiming a pair seals both slots with compare-and-swap and
// records the match in one transaction, so a slot is never in two matches.
type Engine struct {
	db          *sql.DB
	slots       slot.Store
	ledger      ledger.Store
	directory   participant.Directory
	notifier    notifier.Notifier
	metrics     metrics.Metrics
	location    *time.Location
	maxAttempts int
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the timezone used to resolve "today".
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

// WithMaxAttempts sets how many times a lost counterpart triggers a new search.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClock overrides the clock for slot and match timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine on db.
func New(db *sql.DB, directory participant.Directory, notifier notifier.Notifier, metrics metrics.Metrics, opts ...Option) *Engine {
	e := &Engine{
		db:          db,
		directory:   directory,
		notifier:    notifier,
		metrics:     metrics,
		location:    time.UTC,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.slots = slot.New(db, slot.WithClock(e.now))
	e.ledger = ledger.New(db)
	return e
}

// claimed is the outcome of a successful tryMatch.
type claimed struct {
	match       *ledger.Match
	counterpart *participant.Participant
	// fresh is false when a concurrent booking sealed our slot first and
	// already notified both sides.
	fresh bool
}

func (e *Engine) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveMatchDuration(time.Since(start).Seconds()) }()

	if req.ParticipantID == "" {
		return nil, fmt.Errorf("participant id is required: %w", apperrors.ErrInvalidArgument)
	}
	booker, err := e.directory.GetParticipant(ctx, req.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up booker: %w", err)
	}

	key := slot.Key{Date: req.Date, Time: req.Time, Location: req.Location}
	if key.Date == "" {
		key.Date = e.now().In(e.location).Format(slot.DateLayout)
	}
	if key.Location == "" {
		key.Location = booker.Location
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	own, created, err := e.slots.BookSlot(ctx, booker.ID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to book slot: %w", err)
	}
	e.metrics.IncBookings()
	result := &BookingResult{Slot: own, Created: created}

	c, err := e.tryMatch(ctx, booker, own)
	if err != nil {
		return nil, err
	}

	if c == nil {
		// The slot may have been cancelled or paired by another booking
		// while we searched.
		current, err := e.slots.GetSlot(ctx, own.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read slot: %w", err)
		}
		result.Slot = current
		switch current.Status {
		case slot.StatusWaiting:
			e.notify(ctx, booker.ID, notifier.Outcome{
				Kind:     notifier.KindStillWaiting,
				SlotID:   current.ID,
				Date:     key.Date,
				Time:     key.Time,
				Location: key.Location,
			})
		case slot.StatusMatched:
			// The other booking already notified both sides.
			m, err := e.ledger.MatchForSlot(ctx, current.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load match for sealed slot: %w", err)
			}
			log.Info("Slot was matched by a concurrent booking after the search", "slot_id", current.ID, "match_id", m.ID)
			result.Match = m
		}
		return result, nil
	}

	own.Status = slot.StatusMatched
	result.Match = c.match
	if c.fresh {
		e.notifyMatch(ctx, c.match, booker, c.counterpart)
	}
	return result, nil
}

// tryMatch pairs own with the oldest compatible waiting slot on its key.
// It returns nil when no pair could be made and own stays waiting.
func (e *Engine) tryMatch(ctx context.Context, booker *participant.Participant, own *slot.Slot) (*claimed, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		candidate, counterpart, err := e.firstCompatible(ctx, booker, own)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			log.Debug("No compatible slot waiting", "slot_id", own.ID, "key", own.Key())
			return nil, nil
		}

		m, err := e.claim(ctx, own, candidate)
		switch {
		case err == nil:
			e.metrics.IncMatchesCreated()
			log.Info("Matched slots", "match_id", m.ID, "slot_id", own.ID, "counterpart_slot_id", candidate.ID, "attempt", attempt)
			return &claimed{match: m, counterpart: counterpart, fresh: true}, nil

		case errors.Is(err, errOwnSlotLost):
			e.metrics.IncMatchConflicts()
			return e.resolveLostSlot(ctx, own)

		case errors.Is(err, errCounterpartSlotLost):
			e.metrics.IncMatchConflicts()
			log.Debug("Counterpart slot taken, searching again", "slot_id", own.ID, "counterpart_slot_id", candidate.ID, "attempt", attempt)
			continue

		case errors.Is(err, apperrors.ErrDuplicateSlot):
			log.Error("Slot already recorded in a match while still waiting", "slot_id", own.ID, "counterpart_slot_id", candidate.ID, "error", err)
			return nil, err

		default:
			return nil, fmt.Errorf("failed to claim match: %w", err)
		}
	}

	log.Warn("Giving up on matching after repeated conflicts, slot stays waiting", "slot_id", own.ID, "attempts", e.maxAttempts)
	return nil, nil
}

// firstCompatible walks the pool in FIFO order and returns the first slot
// whose owner and the booker accept each other.
func (e *Engine) firstCompatible(ctx context.Context, booker *participant.Participant, own *slot.Slot) (*slot.Slot, *participant.Participant, error) {
	pool, err := e.slots.WaitingInPool(ctx, own.Key(), booker.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load waiting pool: %w", err)
	}
	for i := range pool {
		candidate := &pool[i]
		other, err := e.directory.GetParticipant(ctx, candidate.ParticipantID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				log.Warn("Skipping slot of unknown participant", "slot_id", candidate.ID, "participant_id", candidate.ParticipantID)
				continue
			}
			return nil, nil, fmt.Errorf("failed to look up candidate: %w", err)
		}
		if participant.Compatible(*booker, *other) {
			return candidate, other, nil
		}
	}
	return nil, nil, nil
}

// claim seals both slots and records the match in a single transaction.
func (e *Engine) claim(ctx context.Context, own, candidate *slot.Slot) (*ledger.Match, error) {
	var recorded *ledger.Match
	err := database.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		slots := slot.New(tx, slot.WithClock(e.now))
		if err := slots.Seal(ctx, own.ID); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: %w", errOwnSlotLost, err)
			}
			return err
		}
		if err := slots.Seal(ctx, candidate.ID); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("%w: %w", errCounterpartSlotLost, err)
			}
			return err
		}

		var err error
		recorded, err = ledger.New(tx).RecordMatch(ctx, ledger.Match{
			InitiatorID:       own.ParticipantID,
			CounterpartID:     candidate.ParticipantID,
			SlotID:            own.ID,
			CounterpartSlotID: candidate.ID,
			Date:              own.Date,
			Time:              own.Time,
			Location:          own.Location,
			CreatedAt:         time.Unix(0, e.now().UnixNano()),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// resolveLostSlot handles our own slot leaving waiting under us: either a
// concurrent booking matched it or its owner cancelled it.
func (e *Engine) resolveLostSlot(ctx context.Context, own *slot.Slot) (*claimed, error) {
	current, err := e.slots.GetSlot(ctx, own.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read slot: %w", err)
	}
	if current.Status != slot.StatusMatched {
		log.Info("Slot left the pool during matching", "slot_id", own.ID, "status", current.Status)
		return nil, nil
	}
	m, err := e.ledger.MatchForSlot(ctx, own.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match for sealed slot: %w", err)
	}
	log.Info("Slot was matched by a concurrent booking", "slot_id", own.ID, "match_id", m.ID)
	return &claimed{match: m, fresh: false}, nil
}

func (e *Engine) notifyMatch(ctx context.Context, m *ledger.Match, booker, counterpart *participant.Participant) {
	e.notify(ctx, booker.ID, matchOutcome(m, m.SlotID, counterpart))
	e.notify(ctx, counterpart.ID, matchOutcome(m, m.CounterpartSlotID, booker))
}

// notify delivers an outcome. State is already committed, so failures are
// only logged.
func (e *Engine) notify(ctx context.Context, participantID string, outcome notifier.Outcome) {
	if err := e.notifier.Notify(ctx, participantID, outcome); err != nil {
		log.Warn("Failed to notify participant", "participant_id", participantID, "kind", outcome.Kind, "error", err)
	}
}

func matchOutcome(m *ledger.Match, slotID string, other *participant.Participant) notifier.Outcome {
	return notifier.Outcome{
		Kind:     notifier.KindMatchFound,
		SlotID:   slotID,
		MatchID:  m.ID,
		Date:     m.Date,
		Time:     m.Time,
		Location: m.Location,
		Counterpart: &notifier.CounterpartSummary{
			ID:          other.ID,
			DisplayName: other.DisplayName,
			Age:         other.Age,
			Gender:      other.Gender,
			Bio:         other.Bio,
		},
	}
}

func (e *Engine) Cancel(ctx context.Context, slotID, participantID string) error {
	if slotID == "" || participantID == "" {
		return fmt.Errorf("slot id and participant id are required: %w", apperrors.ErrInvalidArgument)
	}
	if err := e.slots.CancelSlot(ctx, slotID, participantID); err != nil {
		return err
	}
	e.metrics.IncCancellations()
	return nil
}

func (e *Engine) MatchesFor(ctx context.Context, participantID string) ([]ledger.Match, error) {
	matches, err := e.ledger.MatchesFor(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []ledger.Match{}
	}
	return matches, nil
}

func (e *Engine) WaitingSlotsFor(ctx context.Context, participantID string) ([]slot.Slot, error) {
	slots, err := e.slots.WaitingSlotsFor(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []slot.Slot{}
	}
	return slots, nil
}

func (e *Engine) Reset(ctx context.Context) error {
	err := database.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		if err := ledger.New(tx).Clear(ctx); err != nil {
			return err
		}
		return slot.New(tx).Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	log.Info("Reset all slots and matches")
	return nil
}
