package main

import (
	"context"
	"flag"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/config"
	"github.com/mauv0809/tonight/internal/database"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	"github.com/mauv0809/tonight/internal/notifier/slack"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/slot"
)

var demoParticipants = []participant.Participant{
	{ID: "misaki", DisplayName: "Misaki", Gender: "female", Age: 26, GenderSought: "male", AgeRangeMin: 25, AgeRangeMax: 35, Location: "Tokyo", Bio: "Coffee and late-night ramen."},
	{ID: "yui", DisplayName: "Yui", Gender: "female", Age: 29, GenderSought: "male", AgeRangeMin: 27, AgeRangeMax: 38, Location: "Tokyo", Bio: "Jazz bars in Shimokitazawa."},
	{ID: "sakura", DisplayName: "Sakura", Gender: "female", Age: 31, GenderSought: "male", AgeRangeMin: 30, AgeRangeMax: 40, Location: "Osaka", Bio: "Always up for takoyaki."},
	{ID: "kenta", DisplayName: "Kenta", Gender: "male", Age: 28, GenderSought: "female", AgeRangeMin: 24, AgeRangeMax: 32, Location: "Tokyo", Bio: "Runs along the Sumida river."},
	{ID: "haruto", DisplayName: "Haruto", Gender: "male", Age: 33, GenderSought: "female", AgeRangeMin: 28, AgeRangeMax: 36, Location: "Tokyo", Bio: "Weekend photographer."},
	{ID: "ren", DisplayName: "Ren", Gender: "male", Age: 35, GenderSought: "female", AgeRangeMin: 30, AgeRangeMax: 40, Location: "Osaka", Bio: "Cooks a mean okonomiyaki."},
}

// demoBookings only cover the first half of the roster so the rest can be
// booked by hand to watch matches happen.
var demoBookings = []struct {
	participantID string
	time          string
}{
	{"misaki", "19:00"},
	{"yui", "20:00"},
	{"sakura", "21:00"},
}

func main() {
	clearFirst := flag.Bool("clear", false, "Delete every slot and match before seeding")
	flag.Parse()

	log.Info("Starting database seeder...")
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %s", cfg.Timezone, err)
	}

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	// Seeded slots never reach Slack.
	ctx := notifier.WithDryRun(context.Background(), true)
	metricsSvc := metrics.NewService()
	participants := participant.New(db)
	engine := matchmaking.New(db, participants, slack.NewNotifier("", "", metricsSvc), metricsSvc,
		matchmaking.WithLocation(loc),
		matchmaking.WithMaxAttempts(cfg.MaxMatchAttempts),
	)

	if *clearFirst {
		if err := engine.Reset(ctx); err != nil {
			log.Fatalf("Failed to clear slots and matches: %s", err)
		}
	}

	for _, p := range demoParticipants {
		if _, err := participants.Upsert(ctx, p); err != nil {
			log.Fatalf("Failed to upsert participant %s: %s", p.ID, err)
		}
	}
	roster, err := participants.GetAll(ctx)
	if err != nil {
		log.Fatalf("Failed to list participants: %s", err)
	}
	for _, p := range roster {
		log.Info("Participant", "id", p.ID, "name", p.DisplayName, "gender", p.Gender, "age", p.Age, "location", p.Location)
	}
	log.Info("Ensured demo participants exist.", "seeded", len(demoParticipants), "total", len(roster))

	today := time.Now().In(loc).Format(slot.DateLayout)
	for _, b := range demoBookings {
		res, err := engine.Book(ctx, matchmaking.BookingRequest{ParticipantID: b.participantID, Date: today, Time: b.time})
		if err != nil {
			log.Fatalf("Failed to book demo slot for %s: %s", b.participantID, err)
		}
		log.Info("Seeded slot", "participant_id", b.participantID, "slot_id", res.Slot.ID, "status", res.Slot.Status, "created", res.Created)
	}

	log.Info("Seeding complete.", "date", today)
}
