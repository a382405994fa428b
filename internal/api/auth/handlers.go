package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/courtbook/courtbook/internal/api/apiutil"
	appdb "github.com/courtbook/courtbook/internal/db"
	"github.com/courtbook/courtbook/internal/ratelimit"
)

const (
	authQueryTimeout   = 5 * time.Second
	minPasswordLength  = 8
	defaultPhoneRegion = "US"
)

var (
	manager     *Manager
	queries     *appdb.Queries
	limiter     *ratelimit.Limiter
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling
// requests.
func InitHandlers(m *Manager, q *appdb.Queries, l *ratelimit.Limiter) {
	if m == nil || q == nil {
		return
	}
	handlerOnce.Do(func() {
		manager = m
		queries = q
		limiter = l
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/v1/auth/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil || queries == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		apiutil.WriteError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		apiutil.WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	phone := sql.NullString{}
	if raw := strings.TrimSpace(req.Phone); raw != "" {
		parsed, err := phonenumbers.Parse(raw, defaultPhoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			apiutil.WriteError(w, http.StatusBadRequest, "Phone number is not valid")
			return
		}
		phone = sql.NullString{String: phonenumbers.Format(parsed, phonenumbers.E164), Valid: true}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := queries.CreateUser(ctx, appdb.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        phone,
		Role:         RoleMember,
	})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			apiutil.WriteError(w, http.StatusConflict, "An account with that email already exists")
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write register response")
	}
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ip := ratelimit.GetClientIP(r, false)
	if limiter != nil {
		if result := limiter.CheckLogin(email, ip); !result.Allowed {
			ratelimit.LogLimitExceeded(email, ip, result.Reason)
			w.Header().Set("Retry-After", result.RetryAfter.Round(time.Second).String())
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	session, err := manager.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if limiter != nil {
				limiter.RecordLoginFailure(email, ip)
			}
			apiutil.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.Error().Err(err).Msg("Login failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if limiter != nil {
		limiter.ResetLoginAttempts(email)
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, session); err != nil {
		logger.Error().Err(err).Int64("user_id", session.UserID).Msg("Failed to write login response")
	}
}

// POST /api/v1/auth/refresh
func HandleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req refreshRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	session, err := manager.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			apiutil.WriteError(w, http.StatusUnauthorized, "Session expired, log in again")
			return
		}
		logger.Error().Err(err).Msg("Refresh failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, session); err != nil {
		logger.Error().Err(err).Int64("user_id", session.UserID).Msg("Failed to write refresh response")
	}
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req refreshRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	if err := manager.Logout(ctx, req.RefreshToken); err != nil {
		logger.Error().Err(err).Msg("Logout failed")
		apiutil.WriteError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := queries.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("Failed to load user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write user response")
	}
}

// BearerToken extracts the access token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
