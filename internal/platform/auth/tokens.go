package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
	ErrWrongType    = errors.New("wrong token type")
)

// RoleNone is the role claim written when an identity has no profile.
// Identities with this claim fail every role check unless they are staff.
const RoleNone = "N/A"

// TokenSubject is the identity snapshot embedded in issued tokens.
type TokenSubject struct {
	ID       uuid.UUID
	Username string
	Email    string
	Role     string
	IsStaff  bool
}

// TokenPair is an access/refresh token pair returned by the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer mints and verifies HS256-signed token pairs. The refresh
// token's JTI is checked against the revocation store so logout can
// permanently invalidate it.
type TokenIssuer struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	revocations *TokenRevocationStore

	// now is swappable for tests.
	now func() time.Time
}

func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration, revocations *TokenRevocationStore) *TokenIssuer {
	return &TokenIssuer{
		secret:      secret,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		revocations: revocations,
		now:         time.Now,
	}
}

// IssuePair mints a fresh access/refresh pair for the subject.
func (i *TokenIssuer) IssuePair(sub TokenSubject) (*TokenPair, error) {
	access, err := i.sign(sub, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(sub, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *TokenIssuer) sign(sub TokenSubject, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	role := sub.Role
	if role == "" {
		role = RoleNone
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:  sub.Username,
		Email:     sub.Email,
		Role:      role,
		IsStaff:   sub.IsStaff,
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// parse validates signature and expiry and returns the claims.
func (i *TokenIssuer) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token: signature, expiry, token type and
// revocation status.
func (i *TokenIssuer) VerifyRefresh(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, ErrWrongType
	}
	if i.revocations != nil && i.revocations.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Refresh mints a new access token from a valid refresh token. The subject
// snapshot is carried over from the refresh token's claims.
func (i *TokenIssuer) Refresh(refreshToken string) (string, error) {
	claims, err := i.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", ErrInvalidToken
	}
	return i.sign(TokenSubject{
		ID:       id,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		IsStaff:  claims.IsStaff,
	}, TokenTypeAccess, i.accessTTL)
}

// Revoke invalidates a refresh token so it can no longer mint access tokens.
// A missing, malformed, non-refresh or already-revoked token is an error.
func (i *TokenIssuer) Revoke(refreshToken string) error {
	claims, err := i.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	expiresAt := i.now().Add(i.refreshTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	i.revocations.Revoke(claims.ID, expiresAt)
	return nil
}
