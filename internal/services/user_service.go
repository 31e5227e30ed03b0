package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mydebts/mydebts-be/internal/auth"
	"github.com/mydebts/mydebts-be/internal/models"
)

// ErrInvalidCredentials is returned when authentication fails for any
// reason; callers surface one uniform message to avoid account
// enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when registering an already-used email.
var ErrEmailTaken = errors.New("email already registered")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	Register(ctx context.Context, firstName, lastName, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// UserService provides business logic for accounts and credentials.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, display_name, email, role, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.DisplayName, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, display_name, email, role, password_hash, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.DisplayName, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new user account, hashing the password.
func (s *UserService) Register(ctx context.Context, firstName, lastName, email, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:          uuid.New().String(),
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: firstName + " " + lastName,
		Email:       email,
		Role:        "user",
	}

	var taken bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&taken); err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, ErrEmailTaken
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, display_name, email, role, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FirstName, user.LastName, user.DisplayName, user.Email, user.Role, string(hashedPassword))
	if err != nil {
		return models.User{}, err
	}

	return s.GetUserByID(ctx, user.ID)
}

// Authenticate verifies a user's credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// ForgotPassword issues a reset token for the account behind the email.
// It succeeds regardless of whether the account exists, so the endpoint
// cannot be used to probe for registered addresses. Delivery is a log
// line until a mailer is wired up.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info().Str("email", email).Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := auth.GenerateResetToken(user)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	// TODO: send the reset link by email once an SMTP provider is configured.
	log.Info().Str("user_id", user.ID).Str("reset_token", token).Msg("Password reset token issued")
	return nil
}

// ResetPassword validates a reset token and replaces the password of the
// user it was issued for.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := auth.ValidateResetToken(token)
	if err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
