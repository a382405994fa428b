// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/courtbook/courtbook/internal/api"
	"github.com/courtbook/courtbook/internal/api/auth"
	"github.com/courtbook/courtbook/internal/api/courts"
	"github.com/courtbook/courtbook/internal/api/reservations"
	"github.com/courtbook/courtbook/internal/api/venues"
	"github.com/courtbook/courtbook/internal/config"
	"github.com/courtbook/courtbook/internal/db"
	"github.com/courtbook/courtbook/internal/email"
	"github.com/courtbook/courtbook/internal/ratelimit"
)

func newServer(cfg *config.Config, database *db.DB, sender *email.Sender) *http.Server {
	manager := auth.NewManager(
		database.Queries,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
	)
	limiter := ratelimit.New(ratelimit.DefaultConfig())

	auth.InitHandlers(manager, database.Queries, limiter)
	venues.InitHandlers(database)
	courts.InitHandlers(database)
	reservations.InitHandlers(database, sender)

	router := http.NewServeMux()
	registerRoutes(router, manager)

	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithAuth(manager),
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, manager *auth.Manager) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("/api/v1/auth/register", auth.HandleRegister)
	mux.HandleFunc("/api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("/api/v1/auth/refresh", auth.HandleRefresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("/api/v1/auth/me", api.RequireAuthenticated(auth.HandleMe))

	// Venue routes; reads are public, writes are admin-only
	mux.HandleFunc("/api/v1/venues", guardMutations(venues.HandleVenues))
	mux.HandleFunc("/api/v1/venues/", guardMutations(venues.HandleVenueByID))

	// Court routes
	mux.HandleFunc("/api/v1/courts", guardMutations(courts.HandleCourts))
	mux.HandleFunc("/api/v1/courts/", guardMutations(courts.HandleCourtByID))

	// Availability and reservations
	mux.HandleFunc("/api/v1/availability", reservations.HandleAvailability)
	mux.HandleFunc("/api/v1/reservations", api.RequireAuthenticated(reservations.HandleReservations))
	mux.HandleFunc("/api/v1/reservations/", api.RequireAuthenticated(reservations.HandleReservationByID))
}

// guardMutations lets reads through and requires the admin role for
// anything that writes.
func guardMutations(next http.HandlerFunc) http.HandlerFunc {
	admin := api.RequireAdmin(next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}
		admin(w, r)
	}
}
