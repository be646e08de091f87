package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"turbineops/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrorResponse writes the standard error body and aborts the chain.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}

const (
	DefaultBcryptRounds = 12
	MinBcryptRounds     = 4
	MaxBcryptRounds     = 15
)

// Claims is the JWT payload: the user identity plus registered claims.
type Claims struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SignJWT creates an HS256 access token for user that expires after ttl.
func SignJWT(user models.JwtUser, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("failed to sign JWT: empty secret")
	}
	now := time.Now()
	claims := Claims{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// VerifyJWT parses tokenStr, checks signature and expiry, and returns the user it carries.
func VerifyJWT(tokenStr string, secret string) (models.JwtUser, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.JwtUser{}, errors.New("JWT token has expired")
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return models.JwtUser{}, errors.New("JWT token not active")
		default:
			return models.JwtUser{}, fmt.Errorf("JWT verification failed: %w", err)
		}
	}

	if claims.ID == "" || claims.Email == "" || claims.Role == "" {
		return models.JwtUser{}, errors.New("JWT verification failed: Invalid JWT payload: missing required fields")
	}
	if !claims.Role.Valid() {
		return models.JwtUser{}, fmt.Errorf("JWT verification failed: Invalid user role: %s", claims.Role)
	}

	return models.JwtUser{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

// HashPassword bcrypt-hashes password with the given cost.
func HashPassword(password string, rounds int) (string, error) {
	if password == "" {
		return "", errors.New("password hashing failed: Password cannot be empty")
	}
	if rounds < MinBcryptRounds || rounds > MaxBcryptRounds {
		return "", fmt.Errorf("password hashing failed: Bcrypt rounds must be between %d and %d", MinBcryptRounds, MaxBcryptRounds)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), rounds)
	if err != nil {
		return "", fmt.Errorf("password hashing failed: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword reports whether password matches hashedPassword.
// A mismatch is not an error.
func VerifyPassword(password, hashedPassword string) (bool, error) {
	if password == "" {
		return false, errors.New("password verification failed: Password cannot be empty")
	}
	if hashedPassword == "" {
		return false, errors.New("password verification failed: Hashed password cannot be empty")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("password verification failed: %w", err)
}

const passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// ValidatePasswordStrength returns whether password satisfies the policy and every rule it breaks.
func ValidatePasswordStrength(password string) (bool, []string) {
	var errs []string
	if password == "" {
		return false, []string{"Password is required"}
	}

	n := utf8.RuneCountInString(password)
	if n < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if n > 128 {
		errs = append(errs, "Password must be no more than 128 characters long")
	}
	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "Password must contain at least one number")
	}
	if !strings.ContainsAny(password, passwordSpecials) {
		errs = append(errs, "Password must contain at least one special character")
	}

	return len(errs) == 0, errs
}

// ErrInvalidPassword is returned by Authenticate when the password does not match.
var ErrInvalidPassword = errors.New("invalid password")

// AuthService bundles the token and hashing settings used by the API.
type AuthService struct {
	secret string
	ttl    time.Duration
	rounds int
}

func NewAuthService(secret string, ttl time.Duration, rounds int) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if rounds == 0 {
		rounds = DefaultBcryptRounds
	}
	return &AuthService{secret: secret, ttl: ttl, rounds: rounds}
}

func (s *AuthService) Secret() string {
	return s.secret
}

func (s *AuthService) CreateToken(user models.JwtUser) (string, error) {
	return SignJWT(user, s.secret, s.ttl)
}

func (s *AuthService) VerifyToken(token string) (models.JwtUser, error) {
	return VerifyJWT(token, s.secret)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return HashPassword(password, s.rounds)
}

// Authenticate checks password against hashedPassword and issues a token for user.
func (s *AuthService) Authenticate(user models.JwtUser, password, hashedPassword string) (string, error) {
	ok, err := VerifyPassword(password, hashedPassword)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidPassword
	}
	return s.CreateToken(user)
}
