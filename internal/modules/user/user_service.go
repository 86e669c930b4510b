package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcel-courier/internal/config"
	"parcel-courier/internal/models"
	"parcel-courier/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ServiceInterface defines the admin sign-in logic.
type ServiceInterface interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
}

// Service checks the fixed admin credential pair and issues session tokens.
type Service struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	ttl          time.Duration
	now          func() time.Time
}

// NewService builds the service from the auth config. A plain admin password is
// hashed once here; a configured bcrypt hash takes precedence.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("service.NewService: jwt secret is empty")
	}

	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		if cfg.AdminPassword == "" {
			return nil, errors.New("service.NewService: admin password is empty")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("service.NewService.HashPassword: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("service.NewService: admin password hash: %w", err)
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Service{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		jwtSecret:    []byte(cfg.JWTSecret),
		ttl:          ttl,
		now:          time.Now,
	}, nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := utils.GetValidator().Validate(req); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	// The hash is always compared so that a wrong username costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password))
	if !userOK || passErr != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.generateAuthResponse(req.Username)
}

func (s *Service) generateAuthResponse(username string) (*models.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &models.AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.NewSessionID(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        models.SessionUser{Username: username, Authenticated: true},
	}, nil
}
