package auth

import (
	"testing"

	"github.com/mydebts/mydebts-be/internal/models"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	user := models.User{ID: "u1", DisplayName: "Jane Doe"}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.DisplayName != "Jane Doe" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestResetTokenIsNotASessionToken(t *testing.T) {
	user := models.User{ID: "u1"}

	reset, err := GenerateResetToken(user)
	if err != nil {
		t.Fatalf("generate reset: %v", err)
	}

	if _, err := ValidateJWT(reset); err == nil {
		t.Error("reset token accepted as a session token")
	}

	userID, err := ValidateResetToken(reset)
	if err != nil {
		t.Fatalf("validate reset: %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q", userID)
	}
}

func TestSessionTokenIsNotAResetToken(t *testing.T) {
	session, err := GenerateJWT(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateResetToken(session); err == nil {
		t.Error("session token accepted as a reset token")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Error("garbage accepted")
	}
}
