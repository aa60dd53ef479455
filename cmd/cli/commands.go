package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/spf13/cobra"
)

var (
	bookDate     string
	bookLocation string

	profile participant.Participant
)

func init() {
	bookCmd.Flags().StringVar(&bookDate, "date", "", "Date as YYYY-MM-DD (defaults to today on the server)")
	bookCmd.Flags().StringVar(&bookLocation, "location", "", "Location (defaults to the participant's location)")

	registerCmd.Flags().StringVar(&profile.DisplayName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&profile.Gender, "gender", "", "Gender")
	registerCmd.Flags().IntVar(&profile.Age, "age", 0, "Age")
	registerCmd.Flags().StringVar(&profile.GenderSought, "seeking", "", "Gender sought")
	registerCmd.Flags().IntVar(&profile.AgeRangeMin, "min-age", participant.MinAge, "Youngest acceptable age")
	registerCmd.Flags().IntVar(&profile.AgeRangeMax, "max-age", participant.MaxAge, "Oldest acceptable age")
	registerCmd.Flags().StringVar(&profile.Location, "location", "", "Preferred location")
	registerCmd.Flags().StringVar(&profile.Bio, "bio", "", "Short bio")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(waitingCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <participant-id>",
	Short: "Register or update a participant profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile.ID = args[0]
		return performRequest(http.MethodPut, "/participants/"+url.PathEscape(args[0]), profile)
	},
}

var bookCmd = &cobra.Command{
	Use:   "book <participant-id> <HH:MM>",
	Short: "Book a slot for tonight and try to match it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/slots", matchmaking.BookingRequest{
			ParticipantID: args[0],
			Time:          args[1],
			Date:          bookDate,
			Location:      bookLocation,
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <participant-id> <slot-id>",
	Short: "Cancel a waiting slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/slots/" + url.PathEscape(args[1]) + "?participant_id=" + url.QueryEscape(args[0])
		return performRequest(http.MethodDelete, endpoint, nil)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <participant-id>",
	Short: "List a participant's matches, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/participants/"+url.PathEscape(args[0])+"/matches", nil)
	},
}

var waitingCmd = &cobra.Command{
	Use:   "waiting <participant-id>",
	Short: "List a participant's waiting slots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/participants/"+url.PathEscape(args[0])+"/slots", nil)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every slot and match",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/clear", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

func performRequest(method, endpoint string, payload any) error {
	target := host + endpoint
	if dryRun {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target += sep + "dry_run=true"
	}
	fmt.Printf("Making %s request to %s\n", method, target)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
