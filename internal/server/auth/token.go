package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/techroad/techroad/internal/common"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the signed assertions carried by every token: the standard
// registered claims (Subject = user id, ID = jti) plus the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// TokenService issues and verifies HS256-signed JWTs and consults the
// revocation store on every gate check.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
}

// NewTokenService builds a TokenService. The secret must come from
// configuration; tests inject a deterministic one.
func NewTokenService(secret []byte, accessTTL, refreshTTL time.Duration, revoked RevocationStore) *TokenService {
	return &TokenService{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
	}
}

// IssueAccessToken mints a signed access token for userID with a fresh jti.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return s.issue(userID, TokenKindAccess, s.accessTTL)
}

// IssueRefreshToken mints a signed refresh token for userID with a fresh jti.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.issue(userID, TokenKindRefresh, s.refreshTTL)
}

func (s *TokenService) issue(userID string, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	})
	return token.SignedString(s.secret)
}

// Decode verifies the signature and expiry of tokenString and returns its
// claims. Malformed, tampered, and expired tokens all yield ErrInvalidToken.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Revoke adds jti to the revocation store. Idempotent.
func (s *TokenService) Revoke(jti string) {
	s.revoked.Revoke(jti)
}

// IsRevoked reports whether jti has been revoked.
func (s *TokenService) IsRevoked(jti string) bool {
	return s.revoked.IsRevoked(jti)
}

// Authorize runs the authorization gate: decode the token, reject it if its
// jti has been revoked, and require the expected kind. Returns the claims on
// success so callers can read the subject.
func (s *TokenService) Authorize(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if s.revoked.IsRevoked(claims.ID) {
		return nil, common.ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
