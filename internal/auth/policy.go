package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sakif/madison-marketplace/internal/apperror"
)

// Password policies accepted by NewPolicy.
const (
	PasswordPolicyBasic  = "basic"
	PasswordPolicyStrong = "strong"
)

const (
	basicMinLength  = 8
	strongMinLength = 12
	strongSymbols   = "!@#$%^&*"
)

// Policy decides which emails may register and which passwords they may use.
type Policy struct {
	domain   string
	email    *regexp.Regexp
	password string
}

// NewPolicy builds a Policy for the institutional domain (e.g. "wisc.edu")
// and password policy name. Unknown policy names are an error.
func NewPolicy(domain, passwordPolicy string) (*Policy, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, fmt.Errorf("auth: email domain must not be empty")
	}
	switch passwordPolicy {
	case PasswordPolicyBasic, PasswordPolicyStrong:
	default:
		return nil, fmt.Errorf("auth: unknown password policy %q", passwordPolicy)
	}

	return &Policy{
		domain:   domain,
		email:    regexp.MustCompile(`^[A-Za-z0-9._%+-]+@` + regexp.QuoteMeta(domain) + `$`),
		password: passwordPolicy,
	}, nil
}

// NormalizeEmail trims and lowercases an email address. All lookups use the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalized email against the domain.
func (p *Policy) ValidateEmail(email string) error {
	if !p.email.MatchString(email) {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("Registration restricted to @%s emails", p.domain))
	}
	return nil
}

// ValidatePassword applies the configured password policy.
func (p *Policy) ValidatePassword(password []byte) error {
	if len(password) > MaxPasswordBytes {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be %d bytes or fewer", MaxPasswordBytes))
	}

	if p.password == PasswordPolicyBasic {
		if len(password) < basicMinLength {
			return apperror.ValidationFailed("password", "Password is too short")
		}
		return nil
	}

	var upper, digit, symbol bool
	for _, r := range string(password) {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(strongSymbols, r):
			symbol = true
		}
	}
	if len(password) < strongMinLength || !upper || !digit || !symbol {
		return apperror.ValidationFailed("password",
			"Password must be 12+ chars, with 1 Uppercase, 1 Number, and 1 Special Char.")
	}
	return nil
}
