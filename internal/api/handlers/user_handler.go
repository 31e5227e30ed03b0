package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mydebts/mydebts-be/internal/auth"
	"github.com/mydebts/mydebts-be/internal/captcha"
	"github.com/mydebts/mydebts-be/internal/forms/credentials"
	"github.com/mydebts/mydebts-be/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service  services.UserServiceProvider
	verifier captcha.Verifier
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, verifier captcha.Verifier) *UserHandler {
	return &UserHandler{service: service, verifier: verifier}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	TurnstileToken  string `json:"turnstileToken"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	TurnstileToken string `json:"turnstileToken"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form := credentials.RegisterForm{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}
	form.SetPassword(payload.Password)
	form.SetConfirmPassword(payload.ConfirmPassword)
	form.SetCaptchaToken(payload.TurnstileToken)

	if !form.CanSubmit() {
		respondError(w, http.StatusBadRequest, "Invalid registration data. Please check your information.")
		return
	}
	if err := h.verifier.Verify(r.Context(), form.CaptchaToken(), r.RemoteAddr); err != nil {
		log.Warn().Err(err).Msg("Captcha verification failed on register")
		respondError(w, http.StatusBadRequest, "Captcha verification failed. Please try again.")
		return
	}

	user, err := h.service.Register(r.Context(), payload.FirstName, payload.LastName, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "An account with this email already exists.")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondError(w, http.StatusInternalServerError, "Failed to register. Please try again.")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form := credentials.LoginForm{Email: payload.Email, Password: payload.Password}
	form.SetCaptchaToken(payload.TurnstileToken)
	if !form.CanSubmit() {
		respondError(w, http.StatusBadRequest, "Invalid login data. Please check your information.")
		return
	}
	if err := h.verifier.Verify(r.Context(), form.CaptchaToken(), r.RemoteAddr); err != nil {
		log.Warn().Err(err).Msg("Captcha verification failed on login")
		respondError(w, http.StatusBadRequest, "Captcha verification failed. Please try again.")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, http.StatusUnauthorized, "Invalid email or password. Please try again.")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ForgotPassword handles reset-link requests.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email          string `json:"email"`
		TurnstileToken string `json:"turnstileToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	form := credentials.ForgotForm{Email: payload.Email}
	form.SetCaptchaToken(payload.TurnstileToken)
	if !form.CanSubmit() {
		respondError(w, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}
	if err := h.verifier.Verify(r.Context(), form.CaptchaToken(), r.RemoteAddr); err != nil {
		log.Warn().Err(err).Msg("Captcha verification failed on forgot-password")
		respondError(w, http.StatusBadRequest, "Captcha verification failed. Please try again.")
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		log.Error().Err(err).Msg("Failed to issue password reset")
		respondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	// Same response whether or not the account exists.
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for this email, a reset link has been sent.",
	})
}

// ResetPassword handles the reset-link submission.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var form credentials.ResetForm
	form.SetPassword(payload.Password)
	form.SetConfirmPassword(payload.ConfirmPassword)
	if payload.Token == "" || !form.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid password reset data. Please check your information.")
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload.Token, payload.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "This reset link is invalid or has expired.")
			return
		}
		log.Error().Err(err).Msg("Failed to reset password")
		respondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.CurrentUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("User from token not found in DB")
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
