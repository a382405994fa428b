// Package auth owns the session lifecycle: login issues a session,
// refresh rotates it, logout invalidates it. Sessions are explicit
// values handed to callers rather than ambient state.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appdb "github.com/courtbook/courtbook/internal/db"
)

const refreshTokenBytes = 32

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access denied")
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Session is the result of a successful login or refresh: a short-lived
// JWT access token plus an opaque refresh token stored server-side.
type Session struct {
	UserID           int64     `json:"user_id"`
	Role             string    `json:"role"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Identity is the authenticated caller attached to request contexts.
type Identity struct {
	UserID int64
	Role   string
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues, refreshes, and revokes sessions against the token
// store. It is safe for concurrent use.
type Manager struct {
	queries    *appdb.Queries
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

func NewManager(queries *appdb.Queries, secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		queries:    queries,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      realClock{},
	}
}

// WithClock overrides the manager clock, for tests.
func (m *Manager) WithClock(clock Clock) *Manager {
	m.clock = clock
	return m
}

// Login verifies the credentials and creates a fresh session. Prior
// refresh tokens for the user stay valid; each device holds its own.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := m.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return m.issueSession(ctx, user.ID, user.Role)
}

// Refresh rotates a refresh token: the presented token is deleted and a
// new session is issued. A reused or expired token yields ErrInvalidToken.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := hashToken(refreshToken)
	stored, err := m.queries.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, fmt.Errorf("load refresh token: %w", err)
	}

	if err := m.queries.DeleteRefreshToken(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if m.clock.Now().After(stored.ExpiresAt) {
		return Session{}, ErrInvalidToken
	}

	user, err := m.queries.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return m.issueSession(ctx, user.ID, user.Role)
}

// Logout invalidates the presented refresh token. Unknown tokens are
// treated as already logged out.
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	return m.queries.DeleteRefreshToken(ctx, hashToken(refreshToken))
}

// LogoutAll invalidates every refresh token for a user.
func (m *Manager) LogoutAll(ctx context.Context, userID int64) error {
	return m.queries.DeleteRefreshTokensForUser(ctx, userID)
}

// CurrentSession validates an access token and returns the identity it
// carries.
func (m *Manager) CurrentSession(accessToken string) (Identity, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.clock.Now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil || userID <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

func (m *Manager) issueSession(ctx context.Context, userID int64, role string) (Session, error) {
	now := m.clock.Now()
	accessExpires := now.Add(m.accessTTL)

	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return Session{}, err
	}
	refreshExpires := now.Add(m.refreshTTL)
	if err := m.queries.InsertRefreshToken(ctx, hashToken(refreshToken), userID, refreshExpires); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}

	return Session{
		UserID:           userID,
		Role:             role,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Refresh tokens are stored hashed so a leaked database does not leak
// usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
