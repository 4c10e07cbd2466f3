// internal/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/storage"
)

// ErrUnauthorized - wrong username or password.
var ErrUnauthorized = errors.New("invalid credentials")

// Config holds authentication configuration.
type Config struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTExpiration int    `mapstructure:"jwt_expiration"` // in minutes
}

// Manager handles registration, credential verification and tokens, backed
// by the durable user store.
type Manager struct {
	config Config
	users  storage.UserStore
}

// Claims represents JWT claims.
type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

type contextKey string

const usernameKey contextKey = "username"

func NewManager(config Config, users storage.UserStore) *Manager {
	return &Manager{config: config, users: users}
}

// Register creates a new account with a bcrypt-hashed password.
// storage.ErrConflict on a duplicate username.
func (m *Manager) Register(ctx context.Context, username, password string) (data.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return data.User{}, fmt.Errorf("hashing password: %w", err)
	}
	return m.users.Create(ctx, username, string(hash))
}

// Authenticate implements the verify(username, password) contract. Both an
// unknown user and a wrong password collapse to ErrUnauthorized so the
// response does not leak which usernames exist.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (data.User, error) {
	user, err := m.users.GetByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return data.User{}, ErrUnauthorized
	}
	if err != nil {
		return data.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return data.User{}, ErrUnauthorized
	}
	return user, nil
}

// GenerateJWT creates a new token for an authenticated user.
func (m *Manager) GenerateJWT(username string) (string, error) {
	expirationTime := time.Now().Add(time.Duration(m.config.JWTExpiration) * time.Minute)

	claims := &Claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			IssuedAt:  time.Now().Unix(),
			Issuer:    "security-hub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.JWTSecret))
}

// ValidateJWT parses and verifies a token.
func (m *Manager) ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware guards API routes with bearer-token authentication.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := m.ValidateJWT(bearerToken[1])
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UsernameFromContext returns the authenticated username set by Middleware.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
