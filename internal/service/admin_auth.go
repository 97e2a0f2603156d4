package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"starmatch/internal/config"
	"starmatch/internal/domain"
	"starmatch/internal/dto"
	"starmatch/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	tokenTypeAdmin = "admin"
	adminSubject   = "admin"
	tokenIssuer    = "starmatch"
)

var (
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrInvalidJWTToken      = errors.New("invalid jwt token")
)

// AdminAuthService issues and checks the admin panel session token.
type AdminAuthService interface {
	// Enabled reports whether the admin panel is password protected.
	Enabled() bool
	Login(password string) (string, error)
	ValidateJWT(tokenString string) (*dto.AdminClaims, error)
	TokenTTL() time.Duration
}

type adminAuthServiceImpl struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAdminAuthService creates the admin guard from configuration. The JWT
// secret must be at least 32 bytes once a password is set.
func NewAdminAuthService(cfg config.AdminConfig) (AdminAuthService, error) {
	if cfg.Password != "" && len(cfg.JWTSecret) < 32 {
		return nil, errors.New("admin jwt secret must be at least 32 bytes long")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &adminAuthServiceImpl{
		password: []byte(cfg.Password),
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (s *adminAuthServiceImpl) Enabled() bool {
	return len(s.password) > 0
}

func (s *adminAuthServiceImpl) TokenTTL() time.Duration {
	return s.ttl
}

// Login exchanges the admin password for a signed session token.
func (s *adminAuthServiceImpl) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", domain.NewActionDisabledError("admin login is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(password), s.password) != 1 {
		logger.Get().Warn("Admin login rejected")
		return "", domain.NewUnauthorizedError(ErrInvalidAdminPassword.Error())
	}

	now := s.now()
	claims := dto.AdminClaims{
		TokenType: tokenTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.NewInternalError("failed to sign admin token", err)
	}
	logger.Get().Info("Admin logged in", zap.Time("expires_at", claims.ExpiresAt.Time))
	return signed, nil
}

// ValidateJWT checks signature, expiry and token type.
func (s *adminAuthServiceImpl) ValidateJWT(tokenString string) (*dto.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("Admin token expired", zap.Error(err))
		} else {
			logger.Get().Warn("Admin token validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidJWTToken, err)
	}

	claims, ok := token.Claims.(*dto.AdminClaims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAdmin {
		return nil, ErrInvalidJWTToken
	}
	return claims, nil
}
