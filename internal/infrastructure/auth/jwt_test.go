package auth

import (
	"testing"
	"time"

	"github.com/digistore/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		TokenExpiration: 15 * time.Minute,
		Issuer:          "test-issuer",
	}
	return NewJWTService(cfg)
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:          "test-secret",
		TokenExpiration: 15 * time.Minute,
		Issuer:          "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.TokenExpiration, svc.expiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice", RoleAdmin)

	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

func TestValidateToken_Success(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice", RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.Value)

	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.True(t, claims.IsAdmin())
}

func TestValidateToken_CustomerRole(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(uuid.New(), "bob", RoleCustomer)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.Value)

	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestValidateToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(uuid.New(), "alice", RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:          "a-completely-different-secret-key",
		TokenExpiration: 15 * time.Minute,
		Issuer:          "test-issuer",
	})

	_, err = other.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars",
		TokenExpiration: -time.Minute,
		Issuer:          "test-issuer",
	})

	token, err := svc.GenerateToken(uuid.New(), "alice", RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestClaims_GetUserUUID(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "alice", RoleCustomer)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.Value)
	require.NoError(t, err)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestClaims_GetExpiresAtTime(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(uuid.New(), "alice", RoleCustomer)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.Value)
	require.NoError(t, err)

	expiry := claims.GetExpiresAtTime()
	assert.False(t, expiry.IsZero())
	assert.WithinDuration(t, token.ExpiresAt, expiry, time.Second)
}

func TestGetTokenExpiration(t *testing.T) {
	svc := newTestJWTService()
	assert.Equal(t, 15*time.Minute, svc.GetTokenExpiration())
}
