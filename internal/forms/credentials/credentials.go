// Package credentials implements the field and cross-field validation
// rules shared by the login, register, forgot-password and reset-password
// forms, including the password policy and the captcha-token submission
// gate.
package credentials

import (
	"regexp"
	"unicode"
)

// Field length bounds.
const (
	MaxEmailLength    = 254
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 20
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// HasLowercase reports whether s contains at least one lowercase letter.
func HasLowercase(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// HasUppercase reports whether s contains at least one uppercase letter.
func HasUppercase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// HasDigit reports whether s contains at least one digit.
func HasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// HasSpecialChar reports whether s contains at least one character that
// is neither a letter nor a digit.
func HasSpecialChar(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// HasMinLength reports whether s is at least MinPasswordLength long.
func HasMinLength(s string) bool {
	return len(s) >= MinPasswordLength
}

// Checklist is the live password-requirements checklist the UI renders,
// one entry per sub-rule of the complexity policy.
type Checklist struct {
	Lowercase   bool `json:"lowercase"`
	Uppercase   bool `json:"uppercase"`
	Digit       bool `json:"digit"`
	SpecialChar bool `json:"specialChar"`
	MinLength   bool `json:"minLength"`
}

// AllMet reports whether every sub-rule passed.
func (c Checklist) AllMet() bool {
	return c.Lowercase && c.Uppercase && c.Digit && c.SpecialChar && c.MinLength
}

// CheckPassword evaluates each complexity sub-rule independently.
func CheckPassword(password string) Checklist {
	return Checklist{
		Lowercase:   HasLowercase(password),
		Uppercase:   HasUppercase(password),
		Digit:       HasDigit(password),
		SpecialChar: HasSpecialChar(password),
		MinLength:   HasMinLength(password),
	}
}

// ComplexityOK is the aggregate password-policy validator. It is by
// construction the AND of the five sub-rule predicates and can never
// disagree with CheckPassword.
func ComplexityOK(password string) bool {
	return CheckPassword(password).AllMet()
}

// ValidEmail reports whether s has a conventional address shape and an
// acceptable length.
func ValidEmail(s string) bool {
	return s != "" && len(s) <= MaxEmailLength && emailPattern.MatchString(s)
}

// ValidName reports whether a first or last name is within bounds.
func ValidName(s string) bool {
	return len(s) >= 1 && len(s) <= MaxNameLength
}

func validPasswordLength(s string) bool {
	return len(s) >= MinPasswordLength && len(s) <= MaxPasswordLength
}

// captchaGate is the shared submission gate for forms protected by the
// third-party anti-automation widget. The token is a gating condition on
// submission, not a field validator: an expired token blocks submission
// again until a fresh one is supplied.
type captchaGate struct {
	token *string
}

// SetCaptchaToken stores a freshly issued widget token.
func (g *captchaGate) SetCaptchaToken(token string) {
	g.token = &token
}

// ExpireCaptcha drops the token after the widget reports expiry.
func (g *captchaGate) ExpireCaptcha() {
	g.token = nil
}

// CaptchaToken returns the current token, or "" when none is held.
func (g *captchaGate) CaptchaToken() string {
	if g.token == nil {
		return ""
	}
	return *g.token
}

func (g *captchaGate) captchaPresent() bool {
	return g.token != nil
}

// LoginForm validates the login credentials.
type LoginForm struct {
	captchaGate
	Email    string
	Password string
}

// Valid reports field-level validity; it does not consider the captcha.
func (f *LoginForm) Valid() bool {
	return ValidEmail(f.Email) && f.Password != "" && len(f.Password) <= MaxPasswordLength
}

// CanSubmit reports whether the form may be submitted: all fields valid
// and a live captcha token held.
func (f *LoginForm) CanSubmit() bool {
	return f.Valid() && f.captchaPresent()
}

// ForgotForm validates the forgot-password request.
type ForgotForm struct {
	captchaGate
	Email string
}

func (f *ForgotForm) Valid() bool {
	return ValidEmail(f.Email)
}

func (f *ForgotForm) CanSubmit() bool {
	return f.Valid() && f.captchaPresent()
}

// confirmField carries the confirmation control plus its stored error
// state. Cross-field validators do not automatically re-run when a
// sibling changes, so the primary-password setter re-validates the
// confirmation explicitly.
type confirmField struct {
	value    string
	mismatch bool
}

// revalidate re-runs the match rule: a mismatch exists iff the
// confirmation is non-empty and differs from the primary password.
func (c *confirmField) revalidate(password string) {
	c.mismatch = c.value != "" && c.value != password
}

// RegisterForm validates the registration fields, enforcing the password
// complexity policy and the confirmation match.
type RegisterForm struct {
	captchaGate
	FirstName string
	LastName  string
	Email     string

	password string
	confirm  confirmField
}

// SetPassword updates the primary password and re-validates the
// confirmation field against the new value.
func (f *RegisterForm) SetPassword(password string) {
	f.password = password
	if f.confirm.value != "" {
		f.confirm.revalidate(password)
	}
}

// SetConfirmPassword updates the confirmation field.
func (f *RegisterForm) SetConfirmPassword(confirm string) {
	f.confirm.value = confirm
	f.confirm.revalidate(f.password)
}

func (f *RegisterForm) Password() string { return f.password }

// PasswordsMatch reports the stored state of the confirmation validator.
func (f *RegisterForm) PasswordsMatch() bool {
	return f.confirm.value != "" && !f.confirm.mismatch
}

func (f *RegisterForm) Valid() bool {
	return ValidName(f.FirstName) &&
		ValidName(f.LastName) &&
		ValidEmail(f.Email) &&
		validPasswordLength(f.password) &&
		ComplexityOK(f.password) &&
		f.confirm.value != "" &&
		!f.confirm.mismatch
}

func (f *RegisterForm) CanSubmit() bool {
	return f.Valid() && f.captchaPresent()
}

// ResetForm validates the reset-password fields: same password policy and
// confirmation rule as registration, no captcha involved.
type ResetForm struct {
	password string
	confirm  confirmField
}

func (f *ResetForm) SetPassword(password string) {
	f.password = password
	if f.confirm.value != "" {
		f.confirm.revalidate(password)
	}
}

func (f *ResetForm) SetConfirmPassword(confirm string) {
	f.confirm.value = confirm
	f.confirm.revalidate(f.password)
}

func (f *ResetForm) Password() string { return f.password }

func (f *ResetForm) PasswordsMatch() bool {
	return f.confirm.value != "" && !f.confirm.mismatch
}

func (f *ResetForm) Valid() bool {
	return validPasswordLength(f.password) &&
		ComplexityOK(f.password) &&
		f.confirm.value != "" &&
		!f.confirm.mismatch
}
