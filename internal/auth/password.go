// bcrypt salts every hash with random bytes and
// embeds both the salt and the cost in its output:
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (10 rounds → 2^10 iterations)
//	 version
//
// so the stored string is all that is needed to verify a password later.

package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for new accounts.
const DefaultCost = 10

// MaxPasswordBytes is bcrypt's input limit. Longer inputs would be
// silently truncated, so they are rejected instead.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests; cost 4 makes tests run in milliseconds.
type PasswordService struct {
	cost int

	// dummy is compared against when a login names an unknown account, so
	// both failure paths spend the same bcrypt time. Built on first use.
	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordService creates a PasswordService with the given cost.
// Out-of-range values fall back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with the given cost
// and no range check. Use bcrypt.MinCost (4) in tests in other packages.
//
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the plaintext password with bcrypt. The caller owns
// plaintext and may Wipe it afterwards.
func (p *PasswordService) Hash(plaintext []byte) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword(plaintext, p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match and ErrPasswordMismatch on a wrong password.
//
// Input over MaxPasswordBytes never matches: bcrypt would compare only its
// first 72 bytes. It still costs one comparison.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(hash string, plaintext []byte) error {
	if len(plaintext) > MaxPasswordBytes {
		return p.VerifyUnknown(plaintext)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), plaintext)
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyUnknown burns the same time as Verify for a login whose account
// does not exist. It always fails.
func (p *PasswordService) VerifyUnknown(plaintext []byte) error {
	p.dummyOnce.Do(func() {
		p.dummy, _ = bcrypt.GenerateFromPassword([]byte("unknown-account-placeholder"), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummy, plaintext)
	return ErrPasswordMismatch
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
