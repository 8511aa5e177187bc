package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token claims.
const (
	TokenIssuer   = "putevoditel-api"
	TokenAudience = "putevoditel-client"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// BlacklistKey is the Redis key marking a revoked token id.
func BlacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Claims are the JWT claims issued by AuthService.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenPair is returned by the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService issues, verifies and revokes JWTs.
type AuthService struct {
	users      *UserService
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	redis      *redis.Client
	now        func() time.Time
}

// NewAuthService returns an AuthService signing with cfg.JWTSecret. rdb may
// be nil, in which case tokens cannot be revoked.
func NewAuthService(cfg *config.Config, users *UserService, rdb *redis.Client) *AuthService {
	accessTTL := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := time.Duration(cfg.RefreshTokenTTLHours) * time.Hour
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		redis:      rdb,
		now:        time.Now,
	}
}

// Obtain checks the credentials and issues an access/refresh pair.
func (s *AuthService) Obtain(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "AuthService", "Obtain")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	access, err := s.sign(user.ID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, err := s.sign(user.ID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ParseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return "", err
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", models.NewUnauthorizedError("Invalid token subject")
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return "", models.NewUnauthorizedError("User no longer exists")
		}
		return "", err
	}
	access, err := s.sign(userID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return access, nil
}

// ParseToken verifies signature, issuer, audience and expiry and checks that
// the token has the expected type.
func (s *AuthService) ParseToken(tokenString, tokenType string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, models.NewInternalError(errors.New("JWT secret not configured"))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.TokenType != tokenType {
		return nil, models.NewUnauthorizedError("Wrong token type")
	}
	if claims.ID == "" {
		return nil, models.NewUnauthorizedError("Token is missing an id")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, models.NewUnauthorizedError("Invalid token subject")
	}
	return claims, nil
}

// IsRevoked reports whether the token id has been blacklisted.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, jti string) error {
	revoked, err := s.IsRevoked(ctx, jti)
	if err != nil {
		return models.NewInternalError(err)
	}
	if revoked {
		return models.NewUnauthorizedError("Token has been revoked")
	}
	return nil
}

// Revoke blacklists the token until it would have expired anyway.
func (s *AuthService) Revoke(ctx context.Context, claims *Claims) error {
	if s.redis == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, BlacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Logout revokes the access token and, when given, the refresh token of the
// same user.
func (s *AuthService) Logout(ctx context.Context, access *Claims, refreshToken string) error {
	if err := s.Revoke(ctx, access); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.ParseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}
	if refresh.Subject != access.Subject {
		return models.NewForbiddenError("Refresh token belongs to another user")
	}
	return s.Revoke(ctx, refresh)
}

func (s *AuthService) sign(userID uint, tokenType string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := s.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateJTI(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String())
}
