package auth

import (
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/golang-jwt/jwt"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBidder Role = "bidder"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBidder:
		return true
	}
	return false
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID int64
	Role   Role
}

type Claims struct {
	UserID int64 `json:"uid"`
	Role   Role  `json:"role"`
	jwt.StandardClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(caller Caller) (string, error) {
	if caller.UserID <= 0 || !caller.Role.Valid() {
		return "", fmt.Errorf("%w: invalid caller", domain.ErrBadRequest)
	}

	now := s.now()
	claims := Claims{
		UserID: caller.UserID,
		Role:   caller.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies an HS256 token and returns its caller. Every failure maps
// to domain.ErrUnauthorized.
func (s *TokenService) Parse(raw string) (Caller, error) {
	if raw == "" {
		return Caller{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return Caller{}, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		}
		return Caller{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Caller{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return Caller{}, fmt.Errorf("%w: invalid claims", domain.ErrUnauthorized)
	}

	return Caller{UserID: claims.UserID, Role: claims.Role}, nil
}
