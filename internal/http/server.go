package http

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mauv0809/tonight/internal/config"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/pubsub"
	"github.com/rs/cors"
)

// NewServer wires the routes. pubsubClient may be nil, in which case the
// push endpoint is not registered.
func NewServer(participants participant.Store, service matchmaking.Service, metricsHandler http.Handler, cfg config.Config, pubsubClient pubsub.PubSubClient) *Server {
	server := &Server{
		Participants:   participants,
		Matchmaking:    service,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         mux.NewRouter(),
		pubsub:         pubsubClient,
	}
	if cfg.HTTP.BookingRatePerSecond > 0 {
		server.limiter = newLimiterStore(cfg.HTTP.BookingRatePerSecond, cfg.HTTP.BookingBurst)
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler).Methods(http.MethodGet)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware)).Methods(http.MethodGet)
	s.Router.Handle("/clear", Chain(s.ClearStoreHandler(), paramsMiddleware)).Methods(http.MethodPost)

	s.Router.Handle("/participants/{id}", Chain(s.UpsertParticipantHandler(), paramsMiddleware)).Methods(http.MethodPut)
	s.Router.Handle("/participants/{id}", Chain(s.GetParticipantHandler(), paramsMiddleware)).Methods(http.MethodGet)
	s.Router.Handle("/participants/{id}/slots", Chain(s.WaitingSlotsHandler(), paramsMiddleware)).Methods(http.MethodGet)
	s.Router.Handle("/participants/{id}/matches", Chain(s.MatchesHandler(), paramsMiddleware)).Methods(http.MethodGet)

	s.Router.Handle("/slots", Chain(s.BookSlotHandler(), paramsMiddleware)).Methods(http.MethodPost)
	s.Router.Handle("/slots/{id}", Chain(s.CancelSlotHandler(), paramsMiddleware)).Methods(http.MethodDelete)

	if s.pubsub != nil {
		s.Router.Handle("/pubsub/bookings", Chain(s.PubSubBookingHandler(), paramsMiddleware)).Methods(http.MethodPost)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Handler returns the router behind CORS and panic recovery.
func (s *Server) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.Cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.Router)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(corsHandler)
}

// StartJanitor evicts idle rate limiters until ctx is done.
func (s *Server) StartJanitor(ctx context.Context) {
	if s.limiter != nil {
		s.limiter.StartJanitor(ctx)
	}
}
