// internal/api/venues/handlers.go
package venues

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtbook/courtbook/internal/api/apiutil"
	appdb "github.com/courtbook/courtbook/internal/db"
)

const venueQueryTimeout = 5 * time.Second

const routePrefix = "/api/v1/venues"

var (
	queries     *appdb.Queries
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
	})
}

type venueRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (v venueRequest) validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	return nil
}

// GET/POST /api/v1/venues
func HandleVenues(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleList(w, r)
	case http.MethodPost:
		handleCreate(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// GET/PUT/DELETE /api/v1/venues/{id}
func HandleVenueByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleDetail(w, r)
	case http.MethodPut:
		handleUpdate(w, r)
	case http.MethodDelete:
		handleDelete(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func handleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	venues, err := queries.ListVenues(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list venues")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list venues")
		return
	}
	if venues == nil {
		venues = []appdb.Venue{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, venues); err != nil {
		logger.Error().Err(err).Msg("Failed to write venue list response")
	}
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req venueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	venue, err := queries.CreateVenue(ctx, appdb.CreateVenueParams{
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create venue")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, venue); err != nil {
		logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Failed to write venue response")
	}
}

func handleDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	venueID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid venue ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	venue, err := queries.GetVenueByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Venue not found")
			return
		}
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to fetch venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch venue")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, venue); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write venue response")
	}
}

func handleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	venueID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid venue ID")
		return
	}

	var req venueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if _, err := queries.GetVenueByID(ctx, venueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Venue not found")
			return
		}
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to fetch venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch venue")
		return
	}

	venue, err := queries.UpdateVenue(ctx, appdb.UpdateVenueParams{
		ID:          venueID,
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to update venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update venue")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, venue); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write venue response")
	}
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	venueID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid venue ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if err := queries.DeleteVenue(ctx, venueID); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to delete venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete venue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
