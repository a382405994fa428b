// internal/scheduler/jobs.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtbook/courtbook/internal/api/apiutil"
	"github.com/courtbook/courtbook/internal/booking"
	"github.com/courtbook/courtbook/internal/config"
	appdb "github.com/courtbook/courtbook/internal/db"
	"github.com/courtbook/courtbook/internal/email"
)

const jobTimeout = 30 * time.Second

// Jobs owns the recurring maintenance work: releasing stale pending
// reservations and reminding users of upcoming court time.
type Jobs struct {
	db     *appdb.DB
	sender *email.Sender
	ttl    time.Duration
	clock  func() time.Time

	// inFlight guards against acting on the same reservation twice if
	// the rescheduled singleton run picks up a row the previous run is
	// still finishing.
	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewJobs wires the background jobs. The sender may be nil; expiry then
// runs without notifications.
func NewJobs(db *appdb.DB, sender *email.Sender, cfg config.BookingConfig) *Jobs {
	ttl := time.Duration(cfg.PendingTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = booking.PendingTTL
	}
	return &Jobs{
		db:       db,
		sender:   sender,
		ttl:      ttl,
		clock:    time.Now,
		inFlight: make(map[int64]struct{}),
	}
}

// Register adds the recurring jobs to the singleton scheduler.
func (j *Jobs) Register(cfg config.BookingConfig) error {
	if _, err := AddJob("expire_pending", cfg.ExpiryCron, j.ExpirePending); err != nil {
		return err
	}
	if _, err := AddJob("reservation_reminders", cfg.ReminderCron, j.SendReminders); err != nil {
		return err
	}
	return nil
}

// ExpirePending cancels pending reservations that have sat unconfirmed
// past the hold window. Each cancellation is independent: one failure
// is logged and the sweep moves on.
func (j *Jobs) ExpirePending() {
	j.expirePendingAt(j.clock())
}

func (j *Jobs) expirePendingAt(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// The same sweep clears out dead sessions.
	if err := j.db.Queries.DeleteExpiredRefreshTokens(ctx, now); err != nil {
		log.Error().Err(err).Msg("Failed to prune expired refresh tokens")
	}

	stored, err := j.db.Queries.ListStalePending(ctx, now.Add(-j.ttl))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stale pending reservations")
		return
	}

	expired := booking.FindExpiredPending(toBookingReservations(stored), now, j.ttl)
	if len(expired) == 0 {
		return
	}
	log.Info().Int("count", len(expired)).Msg("Releasing expired pending reservations")

	byID := make(map[int64]appdb.Reservation, len(stored))
	for _, r := range stored {
		byID[r.ID] = r
	}

	for _, r := range expired {
		if !j.claim(r.ID) {
			continue
		}
		j.expireOne(ctx, byID[r.ID])
		j.release(r.ID)
	}
}

func (j *Jobs) expireOne(ctx context.Context, r appdb.Reservation) {
	affected, err := j.db.Queries.CancelReservation(ctx, r.ID)
	if err != nil {
		log.Error().Err(err).Int64("reservation_id", r.ID).Msg("Failed to cancel expired reservation")
		return
	}
	if affected == 0 {
		// Already cancelled or confirmed since the snapshot.
		return
	}

	log.Info().
		Int64("reservation_id", r.ID).
		Int64("court_id", r.CourtID).
		Str("day", r.Day).
		Time("created_at", r.CreatedAt).
		Msg("Expired pending reservation released")
	j.notify(ctx, r, j.sender.SendReservationExpired)
}

// SendReminders emails users whose confirmed reservation starts within
// the next hour.
func (j *Jobs) SendReminders() {
	j.sendRemindersAt(j.clock())
}

func (j *Jobs) sendRemindersAt(now time.Time) {
	if j.sender == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	next := now.Add(time.Hour)
	upcoming, err := j.db.Queries.ListConfirmedStartingAt(ctx, next.Format("2006-01-02"), next.Hour())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load upcoming reservations")
		return
	}

	for _, r := range upcoming {
		j.notify(ctx, r, j.sender.SendReservationReminder)
	}
}

func (j *Jobs) notify(ctx context.Context, r appdb.Reservation, send func(to, name string, details email.ReservationDetails)) {
	if j.sender == nil {
		return
	}
	user, err := j.db.Queries.GetUserByID(ctx, r.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", r.UserID).Msg("Skipping notification, user lookup failed")
		return
	}
	courtName := ""
	if court, err := j.db.Queries.GetCourtByID(ctx, r.CourtID); err == nil {
		courtName = court.Name
	}
	send(user.Email, user.Name, email.ReservationDetails{
		CourtName: courtName,
		Day:       r.Day,
		StartHour: r.StartHour,
		EndHour:   r.EndHour,
		Price:     apiutil.FormatPriceCents(r.PriceCents),
	})
}

func (j *Jobs) claim(id int64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, busy := j.inFlight[id]; busy {
		return false
	}
	j.inFlight[id] = struct{}{}
	return true
}

func (j *Jobs) release(id int64) {
	j.mu.Lock()
	delete(j.inFlight, id)
	j.mu.Unlock()
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
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
