package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/courtbook/courtbook/internal/config"
	appdb "github.com/courtbook/courtbook/internal/db"
	"github.com/courtbook/courtbook/internal/testutil"
)

func seedCourt(t *testing.T, database *appdb.DB) (userID, courtID int64) {
	t.Helper()
	ctx := context.Background()

	user, err := database.Queries.CreateUser(ctx, appdb.CreateUserParams{
		Email:        "player@example.com",
		PasswordHash: "x",
		Name:         "Player",
		Phone:        sql.NullString{},
		Role:         "member",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	venue, err := database.Queries.CreateVenue(ctx, appdb.CreateVenueParams{Name: "Downtown"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}

	court, err := database.Queries.CreateCourt(ctx, appdb.CreateCourtParams{
		VenueID:         venue.ID,
		Name:            "Court 1",
		Sport:           "tennis",
		HourlyRateCents: 2000,
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	return user.ID, court.ID
}

// seedReservation inserts a reservation and backdates its creation
// timestamp.
func seedReservation(t *testing.T, database *appdb.DB, userID, courtID int64, status string, createdAt time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	r, err := database.Queries.CreateReservation(ctx, appdb.CreateReservationParams{
		CourtID:    courtID,
		UserID:     userID,
		Day:        "2026-09-01",
		StartHour:  10,
		EndHour:    11,
		PriceCents: 2000,
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if _, err := database.ExecContext(ctx,
		`UPDATE reservations SET status = ?, created_at = ? WHERE id = ?`,
		status, createdAt, r.ID); err != nil {
		t.Fatalf("backdate reservation: %v", err)
	}
	return r.ID
}

func reservationStatus(t *testing.T, database *appdb.DB, id int64) string {
	t.Helper()
	r, err := database.Queries.GetReservationByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	return r.Status
}

func TestExpirePendingReleasesStaleHolds(t *testing.T) {
	database := testutil.NewTestDB(t)
	userID, courtID := seedCourt(t, database)
	now := time.Now().UTC()

	stale := seedReservation(t, database, userID, courtID, "pending", now.Add(-2*time.Hour))
	fresh := seedReservation(t, database, userID, courtID, "pending", now.Add(-10*time.Minute))
	confirmed := seedReservation(t, database, userID, courtID, "confirmed", now.Add(-3*time.Hour))

	jobs := NewJobs(database, nil, config.BookingConfig{PendingTTLMinutes: 60})
	jobs.expirePendingAt(now)

	if got := reservationStatus(t, database, stale); got != "cancelled" {
		t.Errorf("Stale pending reservation status = %q, want cancelled", got)
	}
	if got := reservationStatus(t, database, fresh); got != "pending" {
		t.Errorf("Fresh pending reservation status = %q, want pending", got)
	}
	if got := reservationStatus(t, database, confirmed); got != "confirmed" {
		t.Errorf("Confirmed reservation status = %q, want confirmed", got)
	}
}

func TestExpirePendingThresholdIsStrict(t *testing.T) {
	database := testutil.NewTestDB(t)
	userID, courtID := seedCourt(t, database)
	now := time.Now().UTC()

	// Exactly at the threshold does not expire; one second past does.
	atLimit := seedReservation(t, database, userID, courtID, "pending", now.Add(-60*time.Minute))
	pastLimit := seedReservation(t, database, userID, courtID, "pending", now.Add(-60*time.Minute-time.Second))

	jobs := NewJobs(database, nil, config.BookingConfig{PendingTTLMinutes: 60})
	jobs.expirePendingAt(now)

	if got := reservationStatus(t, database, atLimit); got != "pending" {
		t.Errorf("Reservation exactly at threshold status = %q, want pending", got)
	}
	if got := reservationStatus(t, database, pastLimit); got != "cancelled" {
		t.Errorf("Reservation past threshold status = %q, want cancelled", got)
	}
}

func TestExpirePendingSkipsInFlightReservations(t *testing.T) {
	database := testutil.NewTestDB(t)
	userID, courtID := seedCourt(t, database)
	now := time.Now().UTC()

	stale := seedReservation(t, database, userID, courtID, "pending", now.Add(-2*time.Hour))

	jobs := NewJobs(database, nil, config.BookingConfig{PendingTTLMinutes: 60})
	if !jobs.claim(stale) {
		t.Fatal("First claim should succeed")
	}
	jobs.expirePendingAt(now)

	if got := reservationStatus(t, database, stale); got != "pending" {
		t.Errorf("In-flight reservation status = %q, want pending (skipped)", got)
	}

	jobs.release(stale)
	jobs.expirePendingAt(now)
	if got := reservationStatus(t, database, stale); got != "cancelled" {
		t.Errorf("Released reservation status = %q, want cancelled", got)
	}
}
