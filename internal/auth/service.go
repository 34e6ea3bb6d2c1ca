package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/01moynul/stockroom/internal/apperr"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/ratelimit"
)

const msgInvalidCredentials = "Invalid email or password"

// LoginLimiter throttles failed logins. *ratelimit.Limiter implements it.
type LoginLimiter interface {
	Check(ctx context.Context, email string) error
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Session is what a successful login or password setup returns.
type Session struct {
	User  models.User
	Token string
}

// Service implements the email-first login flow.
type Service struct {
	db      *sql.DB
	tokens  *TokenManager
	limiter LoginLimiter
}

// NewService builds the auth service. limiter may be nil.
func NewService(db *sql.DB, tokens *TokenManager, limiter LoginLimiter) *Service {
	return &Service{db: db, tokens: tokens, limiter: limiter}
}

func (s *Service) Tokens() *TokenManager { return s.tokens }

// CheckEmail reports whether the account still needs its first password.
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	user, err := FindUserByEmail(ctx, s.db, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFound("User not found. Please contact an administrator.")
	}
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	if !user.IsActive {
		return false, apperr.Forbidden("Account is deactivated. Please contact an administrator.")
	}
	return !user.HasPassword(), nil
}

// SetupPassword sets the first password of an active account and signs it in.
// The hash is written only while password_hash IS NULL, so a second call
// can never replace an existing password.
func (s *Service) SetupPassword(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperr.BusinessRule("Invalid request. User may not exist or password already set.")

	user, err := FindUserByEmail(ctx, s.db, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("setup password: %w", err)
	}
	if !user.IsActive || user.HasPassword() {
		return nil, invalid
	}

	var p models.Password
	if err := p.Set(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ? AND password_hash IS NULL",
		p.Hash, now, user.ID)
	if err != nil {
		return nil, fmt.Errorf("store password: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("store password: %w", err)
	} else if n == 0 {
		return nil, invalid
	}
	user.PasswordHash = &p.Hash
	user.UpdatedAt = now

	return s.newSession(user)
}

// Login authenticates email and password. Every credential failure returns
// the same 401 so callers cannot tell which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)

	// 1. Throttle before touching the password.
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				return nil, apperr.RateLimited("Too many login attempts. Please try again later.")
			}
			slog.WarnContext(ctx, "login limiter check failed", "error", err)
		}
	}

	// 2. Check credentials; only credential failures count against the budget.
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated && s.limiter != nil {
			if ferr := s.limiter.Fail(ctx, email); ferr != nil {
				slog.WarnContext(ctx, "login limiter record failed", "error", ferr)
			}
		}
		return nil, err
	}

	// 3. Clear the failure count and issue the session.
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			slog.WarnContext(ctx, "login limiter reset failed", "error", err)
		}
	}
	return s.newSession(user)
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := FindUserByEmail(ctx, s.db, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !user.IsActive || !user.HasPassword() {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}

	p := models.Password{Hash: *user.PasswordHash}
	ok, err := p.Matches(password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	return user, nil
}

// VerifyToken validates the token and then re-reads the user, so deleted or
// deactivated accounts lose access immediately. The returned role is the
// stored one, not the claim.
func (s *Service) VerifyToken(ctx context.Context, token string) (models.AuthUser, error) {
	if token == "" {
		return models.AuthUser{}, apperr.Unauthenticated("Unauthorized")
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return models.AuthUser{}, apperr.Unauthenticated("Unauthorized")
	}

	user, err := FindUserByID(ctx, s.db, claims.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AuthUser{}, apperr.Unauthenticated("Unauthorized")
	}
	if err != nil {
		return models.AuthUser{}, fmt.Errorf("verify token: %w", err)
	}
	if !user.IsActive {
		return models.AuthUser{}, apperr.Unauthenticated("Unauthorized")
	}
	return user.AuthUser(), nil
}

func (s *Service) newSession(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.AuthUser())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: *user, Token: token}, nil
}

const userColumns = "id, email, password_hash, full_name, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail looks the address up case-insensitively. It returns
// sql.ErrNoRows when there is no such user.
func FindUserByEmail(ctx context.Context, q database.Querier, email string) (*models.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", models.NormalizeEmail(email))
	return scanUser(row)
}

// FindUserByID returns sql.ErrNoRows when there is no such user.
func FindUserByID(ctx context.Context, q database.Querier, id string) (*models.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}
