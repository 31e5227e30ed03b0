package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/mydebts/mydebts-be/internal/models"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// Claims defines the JWT claims structure.
type Claims struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Purpose     string `json:"purpose,omitempty"` // set on password-reset tokens
	jwt.RegisteredClaims
}

const resetPurpose = "password-reset"

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// GenerateJWT creates a new session JWT for a given user.
func GenerateJWT(user models.User) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// GenerateResetToken creates a short-lived, purpose-scoped token for a
// password-reset link. It is not accepted as a session token.
func GenerateResetToken(user models.User) (string, error) {
	claims := &Claims{
		UserID:  user.ID,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateJWT parses and validates a session JWT string.
func ValidateJWT(tokenStr string) (*Claims, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, fmt.Errorf("not a session token")
	}
	return claims, nil
}

// ValidateResetToken parses a password-reset token and returns the user
// id it was issued for.
func ValidateResetToken(tokenStr string) (string, error) {
	claims, err := parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != resetPurpose {
		return "", fmt.Errorf("not a password-reset token")
	}
	return claims.UserID, nil
}

func parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// TokenFromRequest extracts the session token from the Authorization
// header or the token cookie, returning "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// JWTMiddleware creates a middleware for protecting routes.
func JWTMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := ValidateJWT(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			log.Debug().Str("user_id", claims.UserID).Msg("Authenticated request")
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUserID returns the authenticated user's id from the request
// context, or "" when the request carries no valid session.
func CurrentUserID(ctx context.Context) string {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	if !ok {
		return ""
	}
	return claims.UserID
}
