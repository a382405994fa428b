// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtbook/courtbook/internal/api/apiutil"
	"github.com/courtbook/courtbook/internal/api/auth"
	"github.com/courtbook/courtbook/internal/booking"
	appdb "github.com/courtbook/courtbook/internal/db"
	"github.com/courtbook/courtbook/internal/email"
)

const reservationQueryTimeout = 5 * time.Second

const routePrefix = "/api/v1/reservations"

var (
	database    *appdb.DB
	sender      *email.Sender
	handlerOnce sync.Once

	// timeNow is swapped out in tests.
	timeNow = time.Now
)

// InitHandlers must be called during server startup before handling
// requests. The email sender may be nil; notifications are then skipped.
func InitHandlers(db *appdb.DB, s *email.Sender) {
	if db == nil {
		return
	}
	handlerOnce.Do(func() {
		database = db
		sender = s
	})
}

type reservationRequest struct {
	CourtID   int64  `json:"court_id"`
	Day       string `json:"day"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

func (req reservationRequest) validate() error {
	if _, err := booking.ParseDay(req.Day, time.Local); err != nil {
		return apiutil.FieldError{Field: "day", Reason: "must be formatted as YYYY-MM-DD"}
	}
	probe := booking.Reservation{StartHour: req.StartHour, EndHour: req.EndHour}
	if !probe.Valid() {
		return apiutil.FieldError{Field: "start_hour", Reason: "must form a whole-hour interval within opening hours"}
	}
	return nil
}

type endOption struct {
	End   int     `json:"end"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

type startOption struct {
	Start int         `json:"start"`
	Label string      `json:"label"`
	Ends  []endOption `json:"ends"`
}

type availabilityResponse struct {
	CourtID     int64           `json:"court_id"`
	Day         string          `json:"day"`
	Slots       []int           `json:"slots"`
	Blocks      []booking.Block `json:"occupied_blocks"`
	ValidStarts []startOption   `json:"valid_starts"`
}

// GET /api/v1/availability?court_id=&date=
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	courtID, err := apiutil.IDFromQuery(r, "court_id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := apiutil.DayFromQuery(r, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	court, err := database.Queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to fetch court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	stored, err := database.Queries.ListReservationsForCourtDay(ctx, courtID, day)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Str("day", day).Msg("Failed to list reservations")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	now := timeNow()
	avail := booking.Compute(toBookingReservations(stored), 0, now, booking.SameDay(day, now))

	hourlyRate := float64(court.HourlyRateCents) / 100
	extraFee := float64(court.ExtraFeeCents) / 100

	starts := make([]startOption, 0, len(avail.ValidStarts))
	for _, start := range avail.ValidStarts {
		validEnds := avail.ValidEnds(start)
		ends := make([]endOption, 0, len(validEnds))
		for _, end := range validEnds {
			ends = append(ends, endOption{
				End:   end,
				Label: booking.FormatHour(end),
				Price: booking.ComputePrice(hourlyRate, start, end, extraFee),
			})
		}
		starts = append(starts, startOption{
			Start: start,
			Label: booking.FormatHour(start),
			Ends:  ends,
		})
	}

	resp := availabilityResponse{
		CourtID:     courtID,
		Day:         day,
		Slots:       booking.DaySlots(),
		Blocks:      avail.Blocks,
		ValidStarts: starts,
	}
	if resp.Blocks == nil {
		resp.Blocks = []booking.Block{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write availability response")
	}
}

// GET/POST /api/v1/reservations
func HandleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleList(w, r)
	case http.MethodPost:
		handleCreate(w, r)
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleReservationByID dispatches /api/v1/reservations/{id} and
// /api/v1/reservations/{id}/confirm.
func HandleReservationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, routePrefix), "/")
	segments := strings.Split(rest, "/")

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			handleDetail(w, r)
		case http.MethodPut:
			handleUpdate(w, r)
		case http.MethodDelete:
			handleCancel(w, r)
		default:
			apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case len(segments) == 2 && segments[1] == "confirm":
		if r.Method != http.MethodPost {
			apiutil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		handleConfirm(w, r, segments[0])
	default:
		apiutil.WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleList returns the caller's reservations, or one court-day when
// court_id and date are both supplied.
func handleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	var (
		stored []appdb.Reservation
		err    error
	)
	if r.URL.Query().Get("court_id") != "" || r.URL.Query().Get("date") != "" {
		courtID, idErr := apiutil.IDFromQuery(r, "court_id")
		if idErr != nil {
			apiutil.WriteError(w, http.StatusBadRequest, idErr.Error())
			return
		}
		day, dayErr := apiutil.DayFromQuery(r, "date")
		if dayErr != nil {
			apiutil.WriteError(w, http.StatusBadRequest, dayErr.Error())
			return
		}
		stored, err = database.Queries.ListReservationsForCourtDay(ctx, courtID, day)
	} else {
		stored, err = database.Queries.ListReservationsForUser(ctx, identity.UserID)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list reservations")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}
	if stored == nil {
		stored = []appdb.Reservation{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, stored); err != nil {
		logger.Error().Err(err).Msg("Failed to write reservation list response")
	}
}

func handleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req reservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	court, err := database.Queries.GetCourtByID(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusBadRequest, "Court does not exist")
			return
		}
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to fetch court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create reservation")
		return
	}
	if !court.Active {
		apiutil.WriteError(w, http.StatusBadRequest, "Court is not accepting reservations")
		return
	}

	now := timeNow()
	priceCents := priceIntervalCents(court, req.StartHour, req.EndHour)

	var created appdb.Reservation
	err = database.RunInTx(ctx, func(tx *appdb.DB) error {
		stored, err := tx.Queries.ListReservationsForCourtDay(ctx, req.CourtID, req.Day)
		if err != nil {
			return err
		}
		if err := checkInterval(stored, 0, req.Day, req.StartHour, req.EndHour, now); err != nil {
			return err
		}
		created, err = tx.Queries.CreateReservation(ctx, appdb.CreateReservationParams{
			CourtID:    req.CourtID,
			UserID:     identity.UserID,
			Day:        req.Day,
			StartHour:  req.StartHour,
			EndHour:    req.EndHour,
			PriceCents: priceCents,
		})
		return err
	})
	if err != nil {
		writeIntervalError(w, logger, err, "Failed to create reservation")
		return
	}

	logger.Info().
		Int64("reservation_id", created.ID).
		Int64("court_id", created.CourtID).
		Str("day", created.Day).
		Msg("Reservation created")

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("reservation_id", created.ID).Msg("Failed to write reservation response")
	}
}

func handleDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	reservation, ok := loadOwnedReservation(w, r)
	if !ok {
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, reservation); err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to write reservation response")
	}
}

func handleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	reservation, ok := loadOwnedReservation(w, r)
	if !ok {
		return
	}
	if reservation.Status != string(booking.StatusPending) {
		apiutil.WriteError(w, http.StatusConflict, "Reservation can no longer be modified")
		return
	}

	var req reservationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CourtID == 0 {
		req.CourtID = reservation.CourtID
	}
	if req.CourtID != reservation.CourtID {
		apiutil.WriteError(w, http.StatusBadRequest, "Reservations cannot move between courts")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	court, err := database.Queries.GetCourtByID(ctx, reservation.CourtID)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", reservation.CourtID).Msg("Failed to fetch court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update reservation")
		return
	}

	now := timeNow()
	priceCents := priceIntervalCents(court, req.StartHour, req.EndHour)

	err = database.RunInTx(ctx, func(tx *appdb.DB) error {
		stored, err := tx.Queries.ListReservationsForCourtDay(ctx, reservation.CourtID, req.Day)
		if err != nil {
			return err
		}
		if err := checkInterval(stored, reservation.ID, req.Day, req.StartHour, req.EndHour, now); err != nil {
			return err
		}
		affected, err := tx.Queries.UpdateReservationTimes(ctx, appdb.UpdateReservationTimesParams{
			ID:         reservation.ID,
			Day:        req.Day,
			StartHour:  req.StartHour,
			EndHour:    req.EndHour,
			PriceCents: priceCents,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errNotModifiable
		}
		return nil
	})
	if err != nil {
		writeIntervalError(w, logger, err, "Failed to update reservation")
		return
	}

	updated, err := database.Queries.GetReservationByID(ctx, reservation.ID)
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to reload reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update reservation")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("reservation_id", updated.ID).Msg("Failed to write reservation response")
	}
}

// handleCancel is idempotent: cancelling an already-cancelled
// reservation succeeds without doing anything.
func handleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	reservation, ok := loadOwnedReservation(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	affected, err := database.Queries.CancelReservation(ctx, reservation.ID)
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to cancel reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to cancel reservation")
		return
	}
	if affected > 0 {
		logger.Info().Int64("reservation_id", reservation.ID).Msg("Reservation cancelled")
		notifyStatusChange(ctx, reservation, sender.SendReservationCancelled)
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleConfirm(w http.ResponseWriter, r *http.Request, rawID string) {
	logger := log.Ctx(r.Context())

	reservation, ok := loadOwnedReservationByID(w, r, rawID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	affected, err := database.Queries.ConfirmReservation(ctx, reservation.ID)
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to confirm reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to confirm reservation")
		return
	}
	if affected == 0 {
		apiutil.WriteError(w, http.StatusConflict, "Only pending reservations can be confirmed")
		return
	}

	logger.Info().Int64("reservation_id", reservation.ID).Msg("Reservation confirmed")
	notifyStatusChange(ctx, reservation, sender.SendReservationConfirmed)

	confirmed, err := database.Queries.GetReservationByID(ctx, reservation.ID)
	if err != nil {
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to reload reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to confirm reservation")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, confirmed); err != nil {
		logger.Error().Err(err).Int64("reservation_id", confirmed.ID).Msg("Failed to write reservation response")
	}
}

// errNotModifiable signals that the reservation left the pending state
// between the read and the write.
var errNotModifiable = errors.New("reservation is no longer pending")

// errSlotConflict signals that the requested interval overlaps an
// existing reservation.
var errSlotConflict = errors.New("requested hours are already reserved")

// errSlotTooSoon signals a same-day interval that starts in the near
// past.
var errSlotTooSoon = errors.New("requested hours are too close to the current time")

// checkInterval re-derives occupancy from a fresh snapshot and rejects
// the proposed interval if it conflicts or, on the current day, starts
// too close to now. Runs inside the write transaction so the check and
// the write see the same state.
func checkInterval(stored []appdb.Reservation, excludeID int64, day string, startHour, endHour int, now time.Time) error {
	isToday := booking.SameDay(day, now)
	avail := booking.Compute(toBookingReservations(stored), excludeID, now, isToday)

	if booking.HasConflict(startHour, endHour, avail.Occupied) {
		return errSlotConflict
	}
	if isToday {
		if !containsHour(avail.ValidStarts, startHour) || !containsHour(avail.ValidEnds(startHour), endHour) {
			return errSlotTooSoon
		}
	}
	return nil
}

func writeIntervalError(w http.ResponseWriter, logger *zerolog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, errSlotConflict):
		apiutil.WriteError(w, http.StatusConflict, "Time slot is already reserved")
	case errors.Is(err, errSlotTooSoon):
		apiutil.WriteError(w, http.StatusBadRequest, "Time slot is no longer available today")
	case errors.Is(err, errNotModifiable):
		apiutil.WriteError(w, http.StatusConflict, "Reservation can no longer be modified")
	default:
		logger.Error().Err(err).Msg(fallback)
		apiutil.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

// loadOwnedReservation loads the reservation named by the request path
// and enforces that the caller owns it or is an admin.
func loadOwnedReservation(w http.ResponseWriter, r *http.Request) (appdb.Reservation, bool) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, routePrefix), "/")
	return loadOwnedReservationByID(w, r, rest)
}

func loadOwnedReservationByID(w http.ResponseWriter, r *http.Request, rawID string) (appdb.Reservation, bool) {
	logger := log.Ctx(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return appdb.Reservation{}, false
	}

	id, err := apiutil.IDFromPath("/"+rawID, "")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid reservation ID")
		return appdb.Reservation{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	reservation, err := database.Queries.GetReservationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Reservation not found")
			return appdb.Reservation{}, false
		}
		logger.Error().Err(err).Int64("reservation_id", id).Msg("Failed to fetch reservation")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch reservation")
		return appdb.Reservation{}, false
	}

	if reservation.UserID != identity.UserID && identity.Role != auth.RoleAdmin {
		apiutil.WriteError(w, http.StatusForbidden, "Forbidden")
		return appdb.Reservation{}, false
	}
	return reservation, true
}

// notifyStatusChange delivers a status email for the reservation. Sends
// are fire-and-forget; lookup failures only log.
func notifyStatusChange(ctx context.Context, reservation appdb.Reservation, send func(to, name string, details email.ReservationDetails)) {
	if sender == nil {
		return
	}
	user, err := database.Queries.GetUserByID(ctx, reservation.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", reservation.UserID).Msg("Skipping notification, user lookup failed")
		return
	}
	courtName := ""
	if court, err := database.Queries.GetCourtByID(ctx, reservation.CourtID); err == nil {
		courtName = court.Name
	}
	send(user.Email, user.Name, email.ReservationDetails{
		CourtName: courtName,
		Day:       reservation.Day,
		StartHour: reservation.StartHour,
		EndHour:   reservation.EndHour,
		Price:     apiutil.FormatPriceCents(reservation.PriceCents),
	})
}

func priceIntervalCents(court appdb.Court, startHour, endHour int) int64 {
	price := booking.ComputePrice(
		float64(court.HourlyRateCents)/100,
		startHour, endHour,
		float64(court.ExtraFeeCents)/100,
	)
	return int64(math.Round(price * 100))
}

func toBookingReservations(stored []appdb.Reservation) []booking.Reservation {
	out := make([]booking.Reservation, 0, len(stored))
	for _, r := range stored {
		out = append(out, booking.Reservation{
			ID:        r.ID,
			CourtID:   r.CourtID,
			UserID:    r.UserID,
			Day:       r.Day,
			StartHour: r.StartHour,
			EndHour:   r.EndHour,
			Status:    booking.Status(r.Status),
			Price:     float64(r.PriceCents) / 100,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

func containsHour(hours []int, hour int) bool {
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}
