package matchmaking_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/tonight/internal/apperrors"
	"github.com/mauv0809/tonight/internal/database"
	"github.com/mauv0809/tonight/internal/ledger"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/slot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func man(id string) participant.Participant {
	return participant.Participant{
		ID: id, DisplayName: "Kenta " + id, Gender: "male", Age: 30,
		GenderSought: "female", AgeRangeMin: 20, AgeRangeMax: 35, Location: "Tokyo",
	}
}

func woman(id string) participant.Participant {
	return participant.Participant{
		ID: id, DisplayName: "Misaki " + id, Gender: "female", Age: 25,
		GenderSought: "male", AgeRangeMin: 25, AgeRangeMax: 40, Location: "Tokyo", Bio: "Coffee and jazz.",
	}
}

type testEnv struct {
	db        *sql.DB
	directory participant.Store
	notifier  *notifier.Mock
	metrics   *metrics.Mock
	engine    *matchmaking.Engine
}

// setupEngine creates an engine on an in-memory SQLite database holding people.
func setupEngine(t *testing.T, people []participant.Participant, opts ...matchmaking.Option) *testEnv {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	directory := participant.New(db)
	for _, p := range people {
		_, err := directory.Upsert(context.Background(), p)
		require.NoError(t, err)
	}

	env := &testEnv{
		db:        db,
		directory: directory,
		notifier:  notifier.NewMock(),
		metrics:   metrics.NewMock(),
	}
	clock := &fakeClock{now: time.Date(2025, 7, 9, 18, 0, 0, 0, time.UTC)}
	opts = append([]matchmaking.Option{matchmaking.WithClock(clock.Now)}, opts...)
	env.engine = matchmaking.New(db, directory, env.notifier, env.metrics, opts...)
	return env
}

func book(t *testing.T, env *testEnv, participantID, tm string) *matchmaking.BookingResult {
	t.Helper()
	res, err := env.engine.Book(context.Background(), matchmaking.BookingRequest{
		ParticipantID: participantID,
		Date:          "2025-07-09",
		Time:          tm,
		Location:      "Tokyo",
	})
	require.NoError(t, err)
	return res
}

func TestBook_EndToEnd(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	ctx := context.Background()

	first := book(t, env, "f", "19:00")
	assert.True(t, first.Created)
	assert.Nil(t, first.Match)
	assert.Equal(t, slot.StatusWaiting, first.Slot.Status)

	second := book(t, env, "m", "19:00")
	require.NotNil(t, second.Match)
	assert.Equal(t, slot.StatusMatched, second.Slot.Status)
	assert.Equal(t, "m", second.Match.InitiatorID)
	assert.Equal(t, "f", second.Match.CounterpartID)
	assert.Equal(t, second.Slot.ID, second.Match.SlotID)
	assert.Equal(t, first.Slot.ID, second.Match.CounterpartSlotID)
	assert.Equal(t, ledger.StatusMatched, second.Match.Status)

	for _, id := range []string{"f", "m"} {
		matches, err := env.engine.MatchesFor(ctx, id)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, second.Match.ID, matches[0].ID)

		waiting, err := env.engine.WaitingSlotsFor(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, waiting)
	}

	// f is told to wait, then both sides get the match.
	fCalls := env.notifier.CallsFor("f")
	require.Len(t, fCalls, 2)
	assert.Equal(t, notifier.KindStillWaiting, fCalls[0].Outcome.Kind)
	assert.Equal(t, notifier.KindMatchFound, fCalls[1].Outcome.Kind)
	assert.Equal(t, first.Slot.ID, fCalls[1].Outcome.SlotID)
	require.NotNil(t, fCalls[1].Outcome.Counterpart)
	assert.Equal(t, "m", fCalls[1].Outcome.Counterpart.ID)

	mCalls := env.notifier.CallsFor("m")
	require.Len(t, mCalls, 1)
	assert.Equal(t, notifier.KindMatchFound, mCalls[0].Outcome.Kind)
	require.NotNil(t, mCalls[0].Outcome.Counterpart)
	assert.Equal(t, "Misaki f", mCalls[0].Outcome.Counterpart.DisplayName)
	assert.Equal(t, 25, mCalls[0].Outcome.Counterpart.Age)
	assert.Equal(t, "Coffee and jazz.", mCalls[0].Outcome.Counterpart.Bio)
	assert.Equal(t, "19:00", mCalls[0].Outcome.Time)
	assert.Equal(t, "Tokyo", mCalls[0].Outcome.Location)

	assert.Equal(t, 2, env.metrics.Bookings())
	assert.Equal(t, 1, env.metrics.MatchesCreated())
	assert.Len(t, env.metrics.MatchDurations(), 2)
}

func TestBook_Idempotent(t *testing.T) {
	env := setupEngine(t, []participant.Participant{woman("f")})

	first := book(t, env, "f", "19:00")
	second := book(t, env, "f", "19:00")

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Slot.ID, second.Slot.ID)
	assert.Equal(t, first.Slot.CreatedAt, second.Slot.CreatedAt)

	waiting, err := env.engine.WaitingSlotsFor(context.Background(), "f")
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestBook_Defaults(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	env := setupEngine(t, []participant.Participant{woman("f")}, matchmaking.WithLocation(jst))

	res, err := env.engine.Book(context.Background(), matchmaking.BookingRequest{ParticipantID: "f", Time: "20:00"})
	require.NoError(t, err)
	// 18:00 UTC on the 9th is already the 10th in Tokyo.
	assert.Equal(t, "2025-07-10", res.Slot.Date)
	assert.Equal(t, "Tokyo", res.Slot.Location)
}

func TestBook_Validation(t *testing.T) {
	env := setupEngine(t, []participant.Participant{woman("f")})
	ctx := context.Background()

	tests := []struct {
		name string
		req  matchmaking.BookingRequest
		want error
	}{
		{"missing participant", matchmaking.BookingRequest{Time: "19:00"}, apperrors.ErrInvalidArgument},
		{"unregistered participant", matchmaking.BookingRequest{ParticipantID: "ghost", Time: "19:00"}, apperrors.ErrNotFound},
		{"missing time", matchmaking.BookingRequest{ParticipantID: "f", Date: "2025-07-09"}, apperrors.ErrInvalidArgument},
		{"bad date", matchmaking.BookingRequest{ParticipantID: "f", Date: "July 9", Time: "19:00"}, apperrors.ErrInvalidArgument},
		{"bad time", matchmaking.BookingRequest{ParticipantID: "f", Time: "7pm"}, apperrors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.engine.Book(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, env.metrics.Bookings())
}

func TestBook_CompatibilityIsSymmetric(t *testing.T) {
	picky := woman("picky")
	picky.AgeRangeMin, picky.AgeRangeMax = 35, 45 // m is 30

	tests := []struct {
		name  string
		order []string
	}{
		{"picky books first", []string{"picky", "m"}},
		{"picky books second", []string{"m", "picky"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEngine(t, []participant.Participant{man("m"), picky})
			for _, id := range tt.order {
				res := book(t, env, id, "19:00")
				assert.Nil(t, res.Match, "a one-sided preference must never match")
			}
			assert.Equal(t, 0, env.metrics.MatchesCreated())
		})
	}
}

func TestBook_FIFO(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("w1"), woman("w2"), woman("w3")})

	w1 := book(t, env, "w1", "19:00")
	book(t, env, "w2", "19:00")
	book(t, env, "w3", "19:00")

	res := book(t, env, "m", "19:00")
	require.NotNil(t, res.Match)
	assert.Equal(t, "w1", res.Match.CounterpartID)
	assert.Equal(t, w1.Slot.ID, res.Match.CounterpartSlotID)

	for _, id := range []string{"w2", "w3"} {
		waiting, err := env.engine.WaitingSlotsFor(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, waiting, 1, "%s keeps waiting", id)
	}
}

func TestBook_SkipsIncompatibleAndUnknownCandidates(t *testing.T) {
	older := woman("older")
	older.Age = 40 // outside m's range
	env := setupEngine(t, []participant.Participant{man("m"), older, woman("gone"), woman("f")})
	ctx := context.Background()

	book(t, env, "older", "19:00")
	book(t, env, "gone", "19:00")
	book(t, env, "f", "19:00")

	// "gone" leaves the directory while the slot is still in the pool.
	directory := participant.NewMock(man("m"), older, woman("f"))
	engine := matchmaking.New(env.db, directory, notifier.NewMock(), metrics.NewMock())

	res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, "f", res.Match.CounterpartID)
	assert.Contains(t, directory.GetParticipantCalls, "gone")
}

func TestBook_CancelThenBookFindsNothing(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	ctx := context.Background()

	f := book(t, env, "f", "19:00")
	require.NoError(t, env.engine.Cancel(ctx, f.Slot.ID, "f"))
	assert.Equal(t, 1, env.metrics.Cancellations())

	res := book(t, env, "m", "19:00")
	assert.Nil(t, res.Match)
	assert.Equal(t, slot.StatusWaiting, res.Slot.Status)
}

func TestBook_IndependentKeys(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f1"), woman("f2")})

	book(t, env, "f1", "19:00")
	book(t, env, "f2", "20:00")
	at19 := book(t, env, "m", "19:00")
	at20 := book(t, env, "m", "20:00")

	require.NotNil(t, at19.Match)
	require.NotNil(t, at20.Match)
	assert.Equal(t, "f1", at19.Match.CounterpartID)
	assert.Equal(t, "f2", at20.Match.CounterpartID)

	matches, err := env.engine.MatchesFor(context.Background(), "m")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, at20.Match.ID, matches[0].ID, "most recent first")
}

func TestBook_OnlyTheTwoSlotsAreSealed(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})

	book(t, env, "f", "19:00")
	other := book(t, env, "f", "20:00")
	res := book(t, env, "m", "19:00")
	require.NotNil(t, res.Match)

	waiting, err := env.engine.WaitingSlotsFor(context.Background(), "f")
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, other.Slot.ID, waiting[0].ID)
}

func TestBook_NotificationFailureKeepsMatch(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	env.notifier.NotifyFunc = func(ctx context.Context, participantID string, outcome notifier.Outcome) error {
		return errors.New("slack is down")
	}

	book(t, env, "f", "19:00")
	res := book(t, env, "m", "19:00")
	require.NotNil(t, res.Match)

	matches, err := env.engine.MatchesFor(context.Background(), "f")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Len(t, env.notifier.Calls(), 3)
}

func TestBook_CounterpartTakenRetries(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f1"), woman("f2")})
	ctx := context.Background()

	f1 := book(t, env, "f1", "19:00")
	book(t, env, "f2", "19:00")

	// f1's slot is claimed elsewhere between the search and the claim.
	var once sync.Once
	directory := participant.NewMock(man("m"), woman("f1"), woman("f2"))
	hook := lookupOnly{
		lookup: func(ctx context.Context, id string) (*participant.Participant, error) {
			if id == "f1" {
				once.Do(func() {
					require.NoError(t, slot.New(env.db).Seal(ctx, f1.Slot.ID))
				})
			}
			return directory.GetParticipant(ctx, id)
		},
	}
	metr := metrics.NewMock()
	engine := matchmaking.New(env.db, hook, notifier.NewMock(), metr)

	res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, "f2", res.Match.CounterpartID)
	assert.Equal(t, 1, metr.MatchConflicts())
}

func TestBook_RetriesExhaustedLeavesSlotWaiting(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f1"), woman("f2")})
	ctx := context.Background()

	f1 := book(t, env, "f1", "19:00")
	f2 := book(t, env, "f2", "19:00")
	slotOf := map[string]string{"f1": f1.Slot.ID, "f2": f2.Slot.ID}

	// Every candidate is taken right after it is found.
	directory := participant.NewMock(man("m"), woman("f1"), woman("f2"))
	hook := lookupOnly{
		lookup: func(ctx context.Context, id string) (*participant.Participant, error) {
			if slotID, ok := slotOf[id]; ok {
				require.NoError(t, slot.New(env.db).Seal(ctx, slotID))
			}
			return directory.GetParticipant(ctx, id)
		},
	}
	metr := metrics.NewMock()
	engine := matchmaking.New(env.db, hook, notifier.NewMock(), metr, matchmaking.WithMaxAttempts(2))

	res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	assert.Equal(t, slot.StatusWaiting, res.Slot.Status)
	assert.Equal(t, 2, metr.MatchConflicts())
}

func TestBook_OwnSlotSealedConcurrently(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f1"), woman("f2")})
	ctx := context.Background()

	book(t, env, "f1", "19:00")
	var ownSlotID, concurrentMatchID string

	// While m searches, f2 books and pairs with m's slot first.
	directory := participant.NewMock(man("m"), woman("f1"), woman("f2"))
	var once sync.Once
	hook := lookupOnly{
		lookup: func(ctx context.Context, id string) (*participant.Participant, error) {
			if id == "f1" {
				once.Do(func() {
					waiting, err := slot.New(env.db).WaitingSlotsFor(ctx, "m")
					require.NoError(t, err)
					require.Len(t, waiting, 1)
					ownSlotID = waiting[0].ID

					res := book(t, env, "f2", "19:00")
					require.NotNil(t, res.Match)
					concurrentMatchID = res.Match.ID
				})
			}
			return directory.GetParticipant(ctx, id)
		},
	}
	notif := notifier.NewMock()
	engine := matchmaking.New(env.db, hook, notif, metrics.NewMock())

	res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, concurrentMatchID, res.Match.ID)
	assert.Equal(t, ownSlotID, res.Slot.ID)
	assert.Equal(t, slot.StatusMatched, res.Slot.Status)
	assert.Empty(t, notif.Calls(), "the concurrent booking already notified both sides")

	// f1 was not touched.
	waiting, err := env.engine.WaitingSlotsFor(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestBook_SlotPairedAfterFruitlessSearch(t *testing.T) {
	// w waits on the key but only seeks women, so m never pairs with w.
	w := woman("w")
	w.GenderSought = "female"
	env := setupEngine(t, []participant.Participant{man("m"), w, woman("f")})
	ctx := context.Background()

	book(t, env, "w", "19:00")
	var concurrentMatchID string

	// While m looks at w, f books and pairs with m's fresh slot.
	directory := participant.NewMock(man("m"), w, woman("f"))
	var once sync.Once
	hook := lookupOnly{
		lookup: func(ctx context.Context, id string) (*participant.Participant, error) {
			if id == "w" {
				once.Do(func() {
					res := book(t, env, "f", "19:00")
					require.NotNil(t, res.Match)
					assert.Equal(t, "m", res.Match.CounterpartID)
					concurrentMatchID = res.Match.ID
				})
			}
			return directory.GetParticipant(ctx, id)
		},
	}
	notif := notifier.NewMock()
	engine := matchmaking.New(env.db, hook, notif, metrics.NewMock())

	res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
	require.NoError(t, err)
	assert.Equal(t, slot.StatusMatched, res.Slot.Status)
	require.NotNil(t, res.Match, "a matched slot is reported with its match")
	assert.Equal(t, concurrentMatchID, res.Match.ID)
	assert.Equal(t, res.Slot.ID, res.Match.CounterpartSlotID)
	assert.Empty(t, notif.Calls(), "the concurrent booking already notified both sides")

	waiting, err := env.engine.WaitingSlotsFor(ctx, "w")
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}

func TestBook_ConcurrentBookingsNeverDoubleMatch(t *testing.T) {
	const pairs = 6
	var people []participant.Participant
	for i := 0; i < pairs; i++ {
		people = append(people, man(fmt.Sprintf("m%d", i)), woman(fmt.Sprintf("f%d", i)))
	}
	env := setupEngine(t, people)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, len(people))
	for _, p := range people {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: id, Date: "2025-07-09", Time: "19:00", Location: "Tokyo"})
			errs <- err
		}(p.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	total := 0
	for i := 0; i < pairs; i++ {
		matches, err := env.engine.MatchesFor(ctx, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		require.LessOrEqual(t, len(matches), 1, "one slot, at most one match")
		for _, m := range matches {
			for _, id := range []string{m.SlotID, m.CounterpartSlotID} {
				assert.False(t, seen[id], "slot %s appears in two matches", id)
				seen[id] = true
			}
			total++
		}
	}
	assert.Greater(t, total, 0)

	var matchedSlots int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM time_slots WHERE status = 'matched'`).Scan(&matchedSlots))
	assert.Equal(t, 2*total, matchedSlots)
}

func TestCancel(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	ctx := context.Background()

	f := book(t, env, "f", "19:00")

	assert.ErrorIs(t, env.engine.Cancel(ctx, "", "f"), apperrors.ErrInvalidArgument)
	assert.ErrorIs(t, env.engine.Cancel(ctx, "missing", "f"), apperrors.ErrNotFound)
	assert.ErrorIs(t, env.engine.Cancel(ctx, f.Slot.ID, "m"), apperrors.ErrNotFound)

	res := book(t, env, "m", "19:00")
	require.NotNil(t, res.Match)
	assert.ErrorIs(t, env.engine.Cancel(ctx, f.Slot.ID, "f"), apperrors.ErrInvalidState, "matched slots cannot be cancelled")
	assert.Equal(t, 0, env.metrics.Cancellations())
}

func TestCancel_RaceWithMatch(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	ctx := context.Background()

	for day := 1; day <= 10; day++ {
		date := fmt.Sprintf("2025-08-%02d", day)
		waiting, err := env.engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "f", Date: date, Time: "19:00", Location: "Tokyo"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var cancelErr, bookErr error
		var booked *matchmaking.BookingResult
		wg.Add(2)
		go func() {
			defer wg.Done()
			cancelErr = env.engine.Cancel(ctx, waiting.Slot.ID, "f")
		}()
		go func() {
			defer wg.Done()
			booked, bookErr = env.engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: "m", Date: date, Time: "19:00", Location: "Tokyo"})
		}()
		wg.Wait()
		require.NoError(t, bookErr)

		if cancelErr == nil {
			assert.Nil(t, booked.Match, "%s: cancelled slot must not be matched", date)
		} else {
			assert.ErrorIs(t, cancelErr, apperrors.ErrInvalidState)
			require.NotNil(t, booked.Match, "%s: cancel lost, so the match won", date)
			assert.Equal(t, waiting.Slot.ID, booked.Match.CounterpartSlotID)
		}
	}
}

func TestReset(t *testing.T) {
	env := setupEngine(t, []participant.Participant{man("m"), woman("f")})
	ctx := context.Background()

	book(t, env, "f", "19:00")
	book(t, env, "m", "19:00")
	book(t, env, "f", "20:00")

	require.NoError(t, env.engine.Reset(ctx))

	matches, err := env.engine.MatchesFor(ctx, "f")
	require.NoError(t, err)
	assert.Empty(t, matches)
	waiting, err := env.engine.WaitingSlotsFor(ctx, "f")
	require.NoError(t, err)
	assert.Empty(t, waiting)

	// Profiles survive a reset.
	_, err = env.directory.GetParticipant(ctx, "f")
	require.NoError(t, err)
}

// lookupOnly adapts a lookup function to participant.Directory.
type lookupOnly struct {
	lookup func(ctx context.Context, id string) (*participant.Participant, error)
}

func (l lookupOnly) GetParticipant(ctx context.Context, id string) (*participant.Participant, error) {
	return l.lookup(ctx, id)
}
