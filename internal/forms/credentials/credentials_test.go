package credentials

import (
	"strings"
	"testing"
)

func TestPasswordComplexityVectors(t *testing.T) {
	cases := []struct {
		password string
		want     Checklist
	}{
		{"Password123!", Checklist{true, true, true, true, true}},
		{"password123!", Checklist{Lowercase: true, Digit: true, SpecialChar: true, MinLength: true}},
		{"PASSWORD123!", Checklist{Uppercase: true, Digit: true, SpecialChar: true, MinLength: true}},
		{"Password!", Checklist{Lowercase: true, Uppercase: true, SpecialChar: true, MinLength: true}},
		{"Password123", Checklist{Lowercase: true, Uppercase: true, Digit: true, MinLength: true}},
		{"Pa1!", Checklist{Lowercase: true, Uppercase: true, Digit: true, SpecialChar: true}},
	}

	for _, tc := range cases {
		got := CheckPassword(tc.password)
		if got != tc.want {
			t.Errorf("CheckPassword(%q) = %+v, want %+v", tc.password, got, tc.want)
		}
		// The aggregate is by contract the AND of the five predicates.
		if ComplexityOK(tc.password) != got.AllMet() {
			t.Errorf("aggregate disagrees with checklist for %q", tc.password)
		}
	}

	if !ComplexityOK("Password123!") {
		t.Error("Password123! must pass the full policy")
	}
	for _, bad := range []string{"password123!", "PASSWORD123!", "Password!", "Password123", "Pa1!"} {
		if ComplexityOK(bad) {
			t.Errorf("%q must fail the full policy", bad)
		}
	}
}

func TestEmailValidation(t *testing.T) {
	valid := []string{"user@example.com", "first.last@sub.domain.org"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false", e)
		}
	}
	invalid := []string{"", "plain", "no@tld", "spaces in@example.com", "a@" + strings.Repeat("x", 250) + ".com"}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true", e)
		}
	}
}

func TestNameBounds(t *testing.T) {
	if ValidName("") {
		t.Error("empty name accepted")
	}
	if !ValidName("A") {
		t.Error("single-character name rejected")
	}
	if ValidName(strings.Repeat("a", 21)) {
		t.Error("21-character name accepted")
	}
}

func validRegisterForm() RegisterForm {
	f := RegisterForm{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	f.SetPassword("Password123!")
	f.SetConfirmPassword("Password123!")
	return f
}

func TestRegisterFormValid(t *testing.T) {
	f := validRegisterForm()
	if !f.Valid() {
		t.Error("fully filled register form should be valid")
	}
	if f.CanSubmit() {
		t.Error("form without a captcha token must not be submittable")
	}
	f.SetCaptchaToken("tok")
	if !f.CanSubmit() {
		t.Error("valid form with token must be submittable")
	}
}

func TestCaptchaExpiryBlocksSubmission(t *testing.T) {
	f := validRegisterForm()
	f.SetCaptchaToken("tok")
	f.ExpireCaptcha()
	if f.CanSubmit() {
		t.Error("expired captcha token still allows submission")
	}
	if f.CaptchaToken() != "" {
		t.Errorf("expired token still readable: %q", f.CaptchaToken())
	}
	f.SetCaptchaToken("tok2")
	if !f.CanSubmit() {
		t.Error("fresh token should re-enable submission")
	}
}

// Changing the primary password after the confirmation already matched
// must re-trip the mismatch without the confirmation field being touched.
func TestConfirmRevalidatesOnPasswordChange(t *testing.T) {
	f := RegisterForm{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	f.SetPassword("Password123!")
	f.SetConfirmPassword("Password123!")
	if !f.PasswordsMatch() {
		t.Fatal("matching confirmation reported as mismatch")
	}

	f.SetPassword("Different123!")
	if f.PasswordsMatch() {
		t.Error("confirmation still reported matching after the password changed")
	}
	if f.Valid() {
		t.Error("form still valid with a stale confirmation")
	}
}

func TestEmptyConfirmationIsNotAMatch(t *testing.T) {
	var f RegisterForm
	f.SetPassword("Password123!")
	if f.PasswordsMatch() {
		t.Error("empty confirmation reported as matching")
	}
}

func TestRegisterFormFieldRules(t *testing.T) {
	f := validRegisterForm()
	f.FirstName = ""
	if f.Valid() {
		t.Error("missing first name accepted")
	}

	f = validRegisterForm()
	f.Email = "not-an-email"
	if f.Valid() {
		t.Error("malformed email accepted")
	}

	f = validRegisterForm()
	f.SetPassword(strings.Repeat("Aa1!", 33)) // 132 chars
	f.SetConfirmPassword(f.Password())
	if f.Valid() {
		t.Error("overlong password accepted")
	}
}

func TestResetForm(t *testing.T) {
	var f ResetForm
	f.SetPassword("Password123!")
	f.SetConfirmPassword("Password123!")
	if !f.Valid() {
		t.Error("valid reset form rejected")
	}

	f.SetPassword("Changed123!")
	if f.Valid() {
		t.Error("reset form valid with stale confirmation")
	}

	var weak ResetForm
	weak.SetPassword("password123!")
	weak.SetConfirmPassword("password123!")
	if weak.Valid() {
		t.Error("reset form accepted a password failing the policy")
	}
}

func TestLoginAndForgotForms(t *testing.T) {
	login := LoginForm{Email: "jane@example.com", Password: "whatever"}
	if !login.Valid() {
		t.Error("login form with shaped fields rejected")
	}
	if login.CanSubmit() {
		t.Error("login without captcha token submittable")
	}
	login.SetCaptchaToken("tok")
	if !login.CanSubmit() {
		t.Error("login with token not submittable")
	}

	forgot := ForgotForm{Email: "bad"}
	forgot.SetCaptchaToken("tok")
	if forgot.CanSubmit() {
		t.Error("forgot form with malformed email submittable")
	}
}
