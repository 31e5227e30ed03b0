package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mydebts/mydebts-be/internal/captcha"
	"github.com/mydebts/mydebts-be/internal/models"
	"github.com/mydebts/mydebts-be/internal/services"
)

type mockUserService struct {
	registered  bool
	failAuth    bool
	forgotEmail string
}

func (m *mockUserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return models.User{ID: id, DisplayName: "Jane Doe"}, nil
}

func (m *mockUserService) Register(ctx context.Context, firstName, lastName, email, password string) (models.User, error) {
	m.registered = true
	return models.User{ID: "u1", FirstName: firstName, LastName: lastName, Email: email}, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	if m.failAuth {
		return models.User{}, services.ErrInvalidCredentials
	}
	return models.User{ID: "u1", Email: email}, nil
}

func (m *mockUserService) ForgotPassword(ctx context.Context, email string) error {
	m.forgotEmail = email
	return nil
}

func (m *mockUserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token != "good-token" {
		return services.ErrInvalidCredentials
	}
	return nil
}

func postJSON(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func TestRegisterHappyPath(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc, captcha.Noop{})

	body := `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com",
		"password":"Password123!","confirmPassword":"Password123!","turnstileToken":"tok"}`
	w := postJSON(h.Register, "/auth/register", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !svc.registered {
		t.Error("service was not called")
	}
	if !strings.Contains(w.Body.String(), `"token"`) {
		t.Error("response carries no session token")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc, captcha.Noop{})

	// No uppercase letter.
	body := `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com",
		"password":"password123!","confirmPassword":"password123!","turnstileToken":"tok"}`
	w := postJSON(h.Register, "/auth/register", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if svc.registered {
		t.Error("weak password reached the service")
	}
}

func TestRegisterRejectsMismatchedConfirmation(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc, captcha.Noop{})

	body := `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com",
		"password":"Password123!","confirmPassword":"Different123!","turnstileToken":"tok"}`
	w := postJSON(h.Register, "/auth/register", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegisterRequiresCaptchaToken(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc, captcha.Noop{})

	body := `{"firstName":"Jane","lastName":"Doe","email":"jane@example.com",
		"password":"Password123!","confirmPassword":"Password123!","turnstileToken":""}`
	w := postJSON(h.Register, "/auth/register", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if svc.registered {
		t.Error("submission without captcha token reached the service")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := NewUserHandler(&mockUserService{failAuth: true}, captcha.Noop{})

	body := `{"email":"jane@example.com","password":"Password123!","turnstileToken":"tok"}`
	w := postJSON(h.Login, "/auth/login", body)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, captcha.Noop{})

	body := `{"email":"jane@example.com","password":"Password123!","turnstileToken":"tok"}`
	w := postJSON(h.Login, "/auth/login", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "token" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("no HttpOnly token cookie set")
	}
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	svc := &mockUserService{}
	h := NewUserHandler(svc, captcha.Noop{})

	body := `{"email":"anyone@example.com","turnstileToken":"tok"}`
	w := postJSON(h.ForgotPassword, "/auth/forgot-password", body)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if svc.forgotEmail != "anyone@example.com" {
		t.Errorf("service saw email %q", svc.forgotEmail)
	}
}

func TestResetPasswordBadToken(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, captcha.Noop{})

	body := `{"token":"expired","password":"Password123!","confirmPassword":"Password123!"}`
	w := postJSON(h.ResetPassword, "/auth/reset-password", body)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestResetPasswordWeakPassword(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, captcha.Noop{})

	body := `{"token":"good-token","password":"short","confirmPassword":"short"}`
	w := postJSON(h.ResetPassword, "/auth/reset-password", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
