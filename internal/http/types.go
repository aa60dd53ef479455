package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mauv0809/tonight/internal/config"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/pubsub"
)

type Server struct {
	Participants   participant.Store
	Matchmaking    matchmaking.Service
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *mux.Router
	pubsub         pubsub.PubSubClient
	limiter        *limiterStore
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}
