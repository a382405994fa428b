// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries run the same
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles the hand-written SQL for the application schema.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// --- users ---

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        sql.NullString
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, phone, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.Name, arg.Phone, arg.Role, now,
	)
	if err != nil {
		return User{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Email: arg.Email, PasswordHash: arg.PasswordHash, Name: arg.Name, Phone: arg.Phone, Role: arg.Role, CreatedAt: now}, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, phone, role, created_at
		 FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, phone, role, created_at
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// --- venues ---

type CreateVenueParams struct {
	Name        string
	Address     string
	Description string
}

func (q *Queries) CreateVenue(ctx context.Context, arg CreateVenueParams) (Venue, error) {
	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO venues (name, address, description, created_at) VALUES (?, ?, ?, ?)`,
		arg.Name, arg.Address, arg.Description, now,
	)
	if err != nil {
		return Venue{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Venue{}, err
	}
	return Venue{ID: id, Name: arg.Name, Address: arg.Address, Description: arg.Description, CreatedAt: now}, nil
}

func (q *Queries) GetVenueByID(ctx context.Context, id int64) (Venue, error) {
	var v Venue
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, address, description, created_at FROM venues WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Address, &v.Description, &v.CreatedAt)
	return v, err
}

func (q *Queries) ListVenues(ctx context.Context) ([]Venue, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, address, description, created_at FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Description, &v.CreatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

type UpdateVenueParams struct {
	ID          int64
	Name        string
	Address     string
	Description string
}

func (q *Queries) UpdateVenue(ctx context.Context, arg UpdateVenueParams) (Venue, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE venues SET name = ?, address = ?, description = ? WHERE id = ?`,
		arg.Name, arg.Address, arg.Description, arg.ID,
	)
	if err != nil {
		return Venue{}, err
	}
	return q.GetVenueByID(ctx, arg.ID)
}

func (q *Queries) DeleteVenue(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	return err
}

// --- courts ---

type CreateCourtParams struct {
	VenueID         int64
	Name            string
	Sport           string
	HourlyRateCents int64
	ExtraFeeCents   int64
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO courts (venue_id, name, sport, hourly_rate_cents, extra_fee_cents, active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		arg.VenueID, arg.Name, arg.Sport, arg.HourlyRateCents, arg.ExtraFeeCents, now,
	)
	if err != nil {
		return Court{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Court{}, err
	}
	return q.GetCourtByID(ctx, id)
}

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	var c Court
	err := q.db.QueryRowContext(ctx,
		`SELECT id, venue_id, name, sport, hourly_rate_cents, extra_fee_cents, active, created_at
		 FROM courts WHERE id = ?`, id,
	).Scan(&c.ID, &c.VenueID, &c.Name, &c.Sport, &c.HourlyRateCents, &c.ExtraFeeCents, &c.Active, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCourtsByVenue(ctx context.Context, venueID int64) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, venue_id, name, sport, hourly_rate_cents, extra_fee_cents, active, created_at
		 FROM courts WHERE venue_id = ? AND active = 1 ORDER BY name`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCourts(rows)
}

func collectCourts(rows *sql.Rows) ([]Court, error) {
	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.VenueID, &c.Name, &c.Sport, &c.HourlyRateCents, &c.ExtraFeeCents, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

type UpdateCourtParams struct {
	ID              int64
	Name            string
	Sport           string
	HourlyRateCents int64
	ExtraFeeCents   int64
	Active          bool
}

func (q *Queries) UpdateCourt(ctx context.Context, arg UpdateCourtParams) (Court, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE courts SET name = ?, sport = ?, hourly_rate_cents = ?, extra_fee_cents = ?, active = ?
		 WHERE id = ?`,
		arg.Name, arg.Sport, arg.HourlyRateCents, arg.ExtraFeeCents, arg.Active, arg.ID,
	)
	if err != nil {
		return Court{}, err
	}
	return q.GetCourtByID(ctx, arg.ID)
}

func (q *Queries) DeactivateCourt(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE courts SET active = 0 WHERE id = ?`, id)
	return err
}

// --- reservations ---

type CreateReservationParams struct {
	CourtID    int64
	UserID     int64
	Day        string
	StartHour  int
	EndHour    int
	PriceCents int64
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	now := time.Now().UTC()
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO reservations (court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		arg.CourtID, arg.UserID, arg.Day, arg.StartHour, arg.EndHour, arg.PriceCents, now,
	)
	if err != nil {
		return Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Reservation{}, err
	}
	return q.GetReservationByID(ctx, id)
}

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at
		 FROM reservations WHERE id = ?`, id)
	var r Reservation
	err := row.Scan(&r.ID, &r.CourtID, &r.UserID, &r.Day, &r.StartHour, &r.EndHour, &r.Status, &r.PriceCents, &r.CreatedAt)
	return r, err
}

// ListReservationsForCourtDay returns every reservation for one court
// and calendar day, any status. Availability derivation filters from
// this snapshot.
func (q *Queries) ListReservationsForCourtDay(ctx context.Context, courtID int64, day string) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at
		 FROM reservations WHERE court_id = ? AND day = ? ORDER BY start_hour`, courtID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (q *Queries) ListReservationsForUser(ctx context.Context, userID int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at
		 FROM reservations WHERE user_id = ? ORDER BY day DESC, start_hour`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListStalePending returns pending reservations created at or before the
// cutoff instant, for the expiry job.
func (q *Queries) ListStalePending(ctx context.Context, cutoff time.Time) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at
		 FROM reservations WHERE status = 'pending' AND created_at < ?`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListConfirmedStartingAt returns confirmed reservations for one day and
// start hour, for reminder delivery.
func (q *Queries) ListConfirmedStartingAt(ctx context.Context, day string, startHour int) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, user_id, day, start_hour, end_hour, status, price_cents, created_at
		 FROM reservations WHERE status = 'confirmed' AND day = ? AND start_hour = ?`, day, startHour)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]Reservation, error) {
	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.CourtID, &r.UserID, &r.Day, &r.StartHour, &r.EndHour, &r.Status, &r.PriceCents, &r.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

type UpdateReservationTimesParams struct {
	ID         int64
	Day        string
	StartHour  int
	EndHour    int
	PriceCents int64
}

// UpdateReservationTimes rewrites the interval of a reservation that is
// still pending. The status guard lives in the WHERE clause so the
// transition rule holds even under concurrent writers.
func (q *Queries) UpdateReservationTimes(ctx context.Context, arg UpdateReservationTimesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET day = ?, start_hour = ?, end_hour = ?, price_cents = ?
		 WHERE id = ? AND status = 'pending'`,
		arg.Day, arg.StartHour, arg.EndHour, arg.PriceCents, arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CancelReservation marks a reservation cancelled. Cancelling an
// already-cancelled reservation affects zero rows, which callers treat
// as success.
func (q *Queries) CancelReservation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'cancelled' WHERE id = ? AND status != 'cancelled'`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ConfirmReservation promotes a pending reservation to confirmed.
func (q *Queries) ConfirmReservation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE reservations SET status = 'confirmed' WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// --- refresh tokens ---

func (q *Queries) InsertRefreshToken(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenHash, userID, expiresAt,
	)
	return err
}

func (q *Queries) GetRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var t RefreshToken
	err := q.db.QueryRowContext(ctx,
		`SELECT token_hash, user_id, expires_at FROM refresh_tokens WHERE token_hash = ?`, tokenHash,
	).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt)
	return t, err
}

func (q *Queries) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, tokenHash)
	return err
}

func (q *Queries) DeleteRefreshTokensForUser(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, now)
	return err
}
