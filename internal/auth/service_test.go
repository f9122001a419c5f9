package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wiremeet/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	return NewService(st, jwtConfig)
}

func TestResolveIdentity_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueToken("user-7", "Ravi")
	require.NoError(t, err)

	id, err := svc.ResolveIdentity(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "user-7", DisplayName: "Ravi"}, id)

	id, err = svc.ResolveIdentity(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", id.UserID)
}

func TestResolveIdentity_Rejects(t *testing.T) {
	svc := newTestService(t)

	foreign := &JWTConfig{Secret: []byte("other"), Issuer: "test", Audience: "test", TTL: time.Hour}
	wrongSecret, err := GenerateToken(foreign, "u", "n")
	require.NoError(t, err)

	wrongAud := &JWTConfig{Secret: []byte("test-secret-change-me"), Issuer: "test", Audience: "elsewhere", TTL: time.Hour}
	wrongAudience, err := GenerateToken(wrongAud, "u", "n")
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u",
		"iss": "test",
		"aud": "test",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("test-secret-change-me"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"wrong secret":   wrongSecret,
		"wrong audience": wrongAudience,
		"expired":        expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ResolveIdentity(context.Background(), token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestRecordParticipation_AppendsHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordParticipation(ctx, "u1", "standup"))
	require.NoError(t, svc.RecordParticipation(ctx, "u1", "retro"))
	assert.ErrorIs(t, svc.RecordParticipation(ctx, "", "retro"), ErrInvalidUser)

	history, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "retro", history[0].RoomID)
}

func TestIssueToken_RequiresUser(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.IssueToken("  ", "x")
	assert.ErrorIs(t, err, ErrInvalidUser)
}
