// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Name         string         `json:"name"`
	Phone        sql.NullString `json:"phone,omitempty"`
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Court struct {
	ID              int64     `json:"id"`
	VenueID         int64     `json:"venue_id"`
	Name            string    `json:"name"`
	Sport           string    `json:"sport"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	ExtraFeeCents   int64     `json:"extra_fee_cents"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

type Reservation struct {
	ID         int64     `json:"id"`
	CourtID    int64     `json:"court_id"`
	UserID     int64     `json:"user_id"`
	Day        string    `json:"day"`
	StartHour  int       `json:"start_hour"`
	EndHour    int       `json:"end_hour"`
	Status     string    `json:"status"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type RefreshToken struct {
	TokenHash string
	UserID    int64
	ExpiresAt time.Time
}
