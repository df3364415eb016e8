package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/pkg/apperrors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", TokenIssuer: "curricula.test"})
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, RoleTeacher)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, RoleTeacher, claims.Role)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: "secret", TokenIssuer: "curricula.test"})
	other := NewJWTService(JWTConfig{SecretKey: "other", TokenIssuer: "curricula.test"})
	wrongIssuer := NewJWTService(JWTConfig{SecretKey: "secret", TokenIssuer: "elsewhere"})

	foreign, err := other.GenerateToken(uuid.New(), RoleStudent)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.NewString(),
		Role:   RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(past),
			Issuer:    "curricula.test",
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	misissued, err := wrongIssuer.GenerateToken(uuid.New(), RoleStudent)
	require.NoError(t, err)
	badRole, err := svc.GenerateToken(uuid.New(), "superuser")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "malformed", token: "not-a-token", wantErr: apperrors.ErrInvalidFormat},
		{name: "wrong secret", token: foreign, wantErr: apperrors.ErrTokenInvalid},
		{name: "expired", token: stale, wantErr: apperrors.ErrTokenExpired},
		{name: "wrong issuer", token: misissued, wantErr: apperrors.ErrTokenInvalid},
		{name: "unknown role", token: badRole, wantErr: apperrors.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok)

	tok, err = ExtractBearerToken("bearer   a.b.c ")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok)

	tok, err = ExtractBearerToken("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", tok)

	_, err = ExtractBearerToken("Basic dXNlcg==")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)
}
