package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/01moynul/stockroom/internal/models"
)

// SessionTTL is how long a session token (and its cookie) stays valid.
const SessionTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of a session token.
type Claims struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName *string     `json:"fullName"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) AuthUser() models.AuthUser {
	return models.AuthUser{ID: c.ID, Email: c.Email, FullName: c.FullName, Role: c.Role}
}

// TokenManager signs and parses HS256 session tokens. It is immutable
// after construction and safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret []byte) *TokenManager {
	return &TokenManager{secret: secret, ttl: SessionTTL, now: time.Now}
}

// GenerateToken creates a new JWT (passport) for the given user.
func (m *TokenManager) GenerateToken(u models.AuthUser) (string, error) {
	now := m.now()
	claims := Claims{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken checks signature, algorithm and expiry. It does not consult
// the database; see Service.VerifyToken for the live check.
func (m *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
