package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/mauv0809/tonight/internal/apperrors"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/pubsub"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "OK",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Received request to clear slots and matches")
		if err := s.Matchmaking.Reset(r.Context()); err != nil {
			log.Error("Failed to clear store", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
		log.Info("Store cleared successfully")
	}
}

func (s *Server) UpsertParticipantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p participant.Participant
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, err)
			return
		}
		p.ID = mux.Vars(r)["id"]

		saved, err := s.Participants.Upsert(r.Context(), p)
		if err != nil {
			log.Error("Failed to upsert participant", "participant_id", p.ID, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func (s *Server) GetParticipantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Participants.GetParticipant(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) WaitingSlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := s.Matchmaking.WaitingSlotsFor(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			log.Error("Failed to list waiting slots", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func (s *Server) MatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Matchmaking.MatchesFor(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			log.Error("Failed to list matches", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) BookSlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchmaking.BookingRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if s.limiter != nil && !s.limiter.Allow(req.ParticipantID) {
			log.Warn("Booking rate limited", "participant_id", req.ParticipantID)
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many booking requests"})
			return
		}

		res, err := s.Matchmaking.Book(r.Context(), req)
		if err != nil {
			log.Error("Failed to book slot", "participant_id", req.ParticipantID, "error", err)
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if res.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

func (s *Server) CancelSlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID := mux.Vars(r)["id"]
		participantID := r.URL.Query().Get("participant_id")
		if err := s.Matchmaking.Cancel(r.Context(), slotID, participantID); err != nil {
			log.Info("Failed to cancel slot", "slot_id", slotID, "participant_id", participantID, "error", err)
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PubSubBookingHandler accepts booking requests pushed by a Pub/Sub
// subscription. Messages that can never succeed are acknowledged with 204;
// only server errors ask for redelivery.
func (s *Server) PubSubBookingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received booking message", "body", string(bodyBytes))

		rawData, envelope, err := pubsub.DecodePush(bodyBytes)
		if err != nil {
			log.Error("Failed to decode push message", "error", err)
			http.Error(w, "Invalid push message", http.StatusBadRequest)
			return
		}

		var req matchmaking.BookingRequest
		if err := s.pubsub.ProcessMessage(rawData, &req); err != nil {
			log.Error("Dropping undecodable booking message", "message_id", envelope.Message.MessageID, "error", err)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		res, err := s.Matchmaking.Book(r.Context(), req)
		if err != nil {
			if status := apperrors.HTTPStatus(err); status < http.StatusInternalServerError {
				log.Warn("Dropping rejected booking message", "message_id", envelope.Message.MessageID, "participant_id", req.ParticipantID, "error", err)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			log.Error("Failed to book from push message", "message_id", envelope.Message.MessageID, "error", err)
			http.Error(w, "Failed to book slot", http.StatusInternalServerError)
			return
		}
		log.Info("Booked from push message", "message_id", envelope.Message.MessageID, "slot_id", res.Slot.ID, "matched", res.Match != nil)
		w.Write([]byte("OK"))
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, apperrors.ErrInvalidArgument)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
