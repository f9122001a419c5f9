package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wiremeet/internal/store"
)

var (
	// ErrInvalidToken is returned when a token cannot be resolved to a user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidUser is returned for an empty user id or room.
	ErrInvalidUser = errors.New("invalid user")
)

// Identity is the stable user behind an issued token.
type Identity struct {
	UserID      string
	DisplayName string
}

// Service resolves socket tokens and records meeting participation. It is
// the boundary to the account and history layer.
type Service struct {
	store     store.ParticipationStore
	jwtConfig *JWTConfig
}

// NewService creates a new identity service.
func NewService(participations store.ParticipationStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     participations,
		jwtConfig: jwtConfig,
	}
}

// ResolveIdentity validates a bearer token and returns its identity.
func (s *Service) ResolveIdentity(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return Identity{UserID: claims.Subject, DisplayName: claims.Name}, nil
}

// IssueToken mints a token for a user, mainly for local development.
func (s *Service) IssueToken(userID, name string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUser
	}
	token, err := GenerateToken(s.jwtConfig, userID, name)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// RecordParticipation appends a meeting to the user's history.
func (s *Service) RecordParticipation(ctx context.Context, userID, roomID string) error {
	if userID == "" || roomID == "" {
		return ErrInvalidUser
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.AddParticipation(ctx, userID, roomID); err != nil {
		return fmt.Errorf("add participation: %w", err)
	}
	return nil
}

// History lists the meetings a user took part in, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*store.Participation, error) {
	if userID == "" {
		return nil, ErrInvalidUser
	}
	return s.store.ListParticipations(ctx, userID, limit)
}
