package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	"github.com/slack-go/slack"
)

// Channel is the metrics label for Slack deliveries.
const Channel = "slack"

const postTimeout = 10 * time.Second

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts match outcomes to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier. Without a token or channel every
// message is logged instead of posted.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	var api slackClient
	if token != "" && channelID != "" {
		api = slack.New(token)
	} else {
		log.Warn("Slack is not configured, outcomes will only be logged")
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// Notify posts outcome for participantID.
func (s *Notifier) Notify(ctx context.Context, participantID string, outcome notifier.Outcome) error {
	var msg slack.Message
	switch outcome.Kind {
	case notifier.KindMatchFound:
		msg = s.formatMatchFound(participantID, outcome)
	case notifier.KindStillWaiting:
		msg = s.formatStillWaiting(participantID, outcome)
	default:
		return fmt.Errorf("unknown outcome kind %q", outcome.Kind)
	}
	_, _, err := s.sendMessage(ctx, msg, notifier.IsDryRun(ctx) || s.api == nil)
	return err
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncNotificationsFailed(Channel)
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotificationsSent(Channel)
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// formatMatchFound creates the Slack message for a new match using Block Kit.
func (s *Notifier) formatMatchFound(participantID string, outcome notifier.Outcome) slack.Message {
	blocks := make([]slack.Block, 0, 4)

	headerText := slack.NewTextBlockObject("plain_text", "💕 Match found for tonight! 💕", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Time: %s %s\nLocation: %s", outcome.Date, outcome.Time, outcome.Location)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if c := outcome.Counterpart; c != nil {
		profileText := fmt.Sprintf("Your match:\n• %s (%d, %s)", c.DisplayName, c.Age, c.Gender)
		if c.Bio != "" {
			profileText += "\n• " + c.Bio
		}
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", profileText, true, false), nil, nil))
	}

	contextText := fmt.Sprintf("For %s • match %s", participantID, outcome.MatchID)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatStillWaiting creates the Slack message for a booking that is waiting for a counterpart.
func (s *Notifier) formatStillWaiting(participantID string, outcome notifier.Outcome) slack.Message {
	blocks := make([]slack.Block, 0, 3)

	headerText := slack.NewTextBlockObject("plain_text", "⏳ Still looking for a match", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("Time: %s %s\nLocation: %s\nWe will let you know as soon as someone books the same slot.", outcome.Date, outcome.Time, outcome.Location)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	contextText := fmt.Sprintf("For %s • slot %s", participantID, outcome.SlotID)
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}
