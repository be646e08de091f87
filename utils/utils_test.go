package utils

import (
	"strings"
	"testing"
	"time"

	"turbineops/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var engineer = models.JwtUser{ID: "u-1", Email: "eng@example.com", Role: models.RoleEngineer}

func TestSignAndVerifyJWT(t *testing.T) {
	token, err := SignJWT(engineer, testSecret, time.Hour)
	require.NoError(t, err)

	user, err := VerifyJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, engineer, user)
}

func TestSignJWTRequiresSecret(t *testing.T) {
	_, err := SignJWT(engineer, "", time.Hour)
	assert.Error(t, err)
}

func TestVerifyJWTRejects(t *testing.T) {
	valid, err := SignJWT(engineer, testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := SignJWT(engineer, testSecret, -time.Minute)
	require.NoError(t, err)

	sign := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	notYet := sign(Claims{
		ID: engineer.ID, Email: engineer.Email, Role: engineer.Role,
		RegisteredClaims: jwt.RegisteredClaims{NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	missingEmail := sign(Claims{ID: "u-1", Role: models.RoleAdmin})
	badRole := sign(Claims{ID: "u-1", Email: "x@example.com", Role: "ROOT"})
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u-1", Email: "x@example.com", Role: models.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantMsg string
	}{
		{"wrong secret", valid, "other-secret", "JWT verification failed"},
		{"expired", expired, testSecret, "JWT token has expired"},
		{"not yet valid", notYet, testSecret, "JWT token not active"},
		{"missing claims", missingEmail, testSecret, "missing required fields"},
		{"unknown role", badRole, testSecret, "Invalid user role: ROOT"},
		{"alg none", unsigned, testSecret, "JWT verification failed"},
		{"garbage", "not-a-token", testSecret, "JWT verification failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyJWT(tt.token, tt.secret)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("engineer123", MinBcryptRounds)
	require.NoError(t, err)
	assert.NotEqual(t, "engineer123", hash)

	ok, err := VerifyPassword("engineer123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordValidation(t *testing.T) {
	_, err := HashPassword("", MinBcryptRounds)
	assert.Error(t, err)
	_, err = HashPassword("secret", 3)
	assert.Error(t, err)
	_, err = HashPassword("secret", 16)
	assert.Error(t, err)

	_, err = VerifyPassword("", "hash")
	assert.Error(t, err)
	_, err = VerifyPassword("secret", "")
	assert.Error(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	ok, errs := ValidatePasswordStrength("Str0ng!Passw0rd")
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = ValidatePasswordStrength("")
	assert.False(t, ok)
	assert.Equal(t, []string{"Password is required"}, errs)

	ok, errs = ValidatePasswordStrength("abc")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{
		"Password must be at least 8 characters long",
		"Password must contain at least one uppercase letter",
		"Password must contain at least one number",
		"Password must contain at least one special character",
	}, errs)

	ok, errs = ValidatePasswordStrength("Aa1!" + strings.Repeat("x", 130))
	assert.False(t, ok)
	assert.Equal(t, []string{"Password must be no more than 128 characters long"}, errs)
}

func TestAuthServiceAuthenticate(t *testing.T) {
	auth := NewAuthService(testSecret, time.Hour, MinBcryptRounds)
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)

	token, err := auth.Authenticate(engineer, "admin123", hash)
	require.NoError(t, err)
	user, err := auth.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, engineer.ID, user.ID)

	_, err = auth.Authenticate(engineer, "nope", hash)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
