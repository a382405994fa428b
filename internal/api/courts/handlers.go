// internal/api/courts/handlers.go
package courts

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

const courtQueryTimeout = 5 * time.Second

const routePrefix = "/api/v1/courts"

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

type courtRequest struct {
	VenueID         int64  `json:"venue_id"`
	Name            string `json:"name"`
	Sport           string `json:"sport"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
	ExtraFeeCents   int64  `json:"extra_fee_cents"`
	Active          *bool  `json:"active,omitempty"`
}

func (c courtRequest) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if c.HourlyRateCents < 0 {
		return apiutil.FieldError{Field: "hourly_rate_cents", Reason: "must not be negative"}
	}
	if c.ExtraFeeCents < 0 {
		return apiutil.FieldError{Field: "extra_fee_cents", Reason: "must not be negative"}
	}
	return nil
}

// GET/POST /api/v1/courts
func HandleCourts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleList(w, r)
	case http.MethodPost:
		handleCreate(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// GET/PUT/DELETE /api/v1/courts/{id}
func HandleCourtByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleDetail(w, r)
	case http.MethodPut:
		handleUpdate(w, r)
	case http.MethodDelete:
		handleDeactivate(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleList lists the active courts of one venue. Without a venue_id
// there is nothing to list yet, so it degrades to an empty result.
func handleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	venueID, err := apiutil.IDFromQuery(r, "venue_id")
	if err != nil {
		if err := apiutil.WriteJSON(w, http.StatusOK, []appdb.Court{}); err != nil {
			logger.Error().Err(err).Msg("Failed to write court list response")
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	courts, err := queries.ListCourtsByVenue(ctx, venueID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to list courts")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list courts")
		return
	}
	if courts == nil {
		courts = []appdb.Court{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, courts); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write court list response")
	}
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	if _, err := queries.GetVenueByID(ctx, req.VenueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusBadRequest, "Venue does not exist")
			return
		}
		logger.Error().Err(err).Int64("venue_id", req.VenueID).Msg("Failed to fetch venue")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create court")
		return
	}

	court, err := queries.CreateCourt(ctx, appdb.CreateCourtParams{
		VenueID:         req.VenueID,
		Name:            strings.TrimSpace(req.Name),
		Sport:           strings.TrimSpace(req.Sport),
		HourlyRateCents: req.HourlyRateCents,
		ExtraFeeCents:   req.ExtraFeeCents,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create court")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, court); err != nil {
		logger.Error().Err(err).Int64("court_id", court.ID).Msg("Failed to write court response")
	}
}

func handleDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	courtID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid court ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	court, err := queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to fetch court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch court")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, court); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write court response")
	}
}

func handleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	courtID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid court ID")
		return
	}

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	existing, err := queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to fetch court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch court")
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	court, err := queries.UpdateCourt(ctx, appdb.UpdateCourtParams{
		ID:              courtID,
		Name:            strings.TrimSpace(req.Name),
		Sport:           strings.TrimSpace(req.Sport),
		HourlyRateCents: req.HourlyRateCents,
		ExtraFeeCents:   req.ExtraFeeCents,
		Active:          active,
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to update court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update court")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, court); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write court response")
	}
}

// handleDeactivate soft-deletes a court. Existing reservations keep
// their history; the court just stops accepting new ones.
func handleDeactivate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	courtID, err := apiutil.IDFromPath(r.URL.Path, routePrefix)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid court ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	if err := queries.DeactivateCourt(ctx, courtID); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to deactivate court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to deactivate court")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
