package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mydebts/mydebts-be/internal/auth"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "Password123!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.DisplayName != "Jane Doe" {
		t.Errorf("displayName = %q, want %q", user.DisplayName, "Jane Doe")
	}
	if user.Role != "user" {
		t.Errorf("role = %q, want user", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked on the returned user")
	}

	authed, err := svc.Authenticate(ctx, "jane@example.com", "Password123!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticated id = %q, want %q", authed.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "jane@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "Password123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "Password123!"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "Janet", "Doe", "jane@example.com", "Password123!"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("forgot-password must not reveal unknown accounts, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "Password123!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := auth.GenerateResetToken(user)
	if err != nil {
		t.Fatalf("issue reset token: %v", err)
	}

	if err := svc.ResetPassword(ctx, token, "Changed123!"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "jane@example.com", "Password123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted after reset")
	}
	if _, err := svc.Authenticate(ctx, "jane@example.com", "Changed123!"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestResetPasswordRejectsSessionToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Jane", "Doe", "jane@example.com", "Password123!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := auth.GenerateJWT(user)
	if err != nil {
		t.Fatalf("issue session token: %v", err)
	}
	if err := svc.ResetPassword(ctx, session, "Changed123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("session token accepted as reset token: %v", err)
	}
	if err := svc.ResetPassword(ctx, "garbage", "Changed123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("garbage token error = %v, want ErrInvalidCredentials", err)
	}
}
