package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func fastPasswords() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestPasswordService_HashThenVerify(t *testing.T) {
	ps := fastPasswords()

	for _, pw := range []string{
		"Badger$Forward1",
		"p@$$w0rd!#%",
		"пароль-密码",
		"  spaces count  ",
		strings.Repeat("x", MaxPasswordBytes),
	} {
		hash, err := ps.Hash([]byte(pw))
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", pw, err)
		}
		if !strings.HasPrefix(hash, "$2") {
			t.Errorf("Hash(%q) = %q, not a bcrypt string", pw, hash)
		}
		if err := ps.Verify(hash, []byte(pw)); err != nil {
			t.Errorf("Verify(%q) error = %v", pw, err)
		}
		if err := ps.Verify(hash, []byte("definitely-wrong")); !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("Verify(wrong) against hash of %q = %v, want ErrPasswordMismatch", pw, err)
		}
	}
}

func TestPasswordService_SaltsEveryHash(t *testing.T) {
	ps := fastPasswords()

	a, _ := ps.Hash([]byte("same-password"))
	b, _ := ps.Hash([]byte("same-password"))
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestPasswordService_RejectsOverlongInput(t *testing.T) {
	if _, err := fastPasswords().Hash([]byte(strings.Repeat("x", MaxPasswordBytes+1))); err == nil {
		t.Fatal("Hash() accepted a password bcrypt would truncate")
	}
}

func TestPasswordService_CorruptHash(t *testing.T) {
	err := fastPasswords().Verify("not-a-bcrypt-hash", []byte("password"))
	if err == nil {
		t.Fatal("Verify() accepted a corrupt hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Error("corrupt hash reported as a plain mismatch")
	}
}

func TestPasswordService_VerifyUnknown(t *testing.T) {
	ps := fastPasswords()

	// The placeholder itself must not unlock anything.
	for _, pw := range []string{"", "unknown-account-placeholder", "Badger$Forward1"} {
		if err := ps.VerifyUnknown([]byte(pw)); !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("VerifyUnknown(%q) = %v, want ErrPasswordMismatch", pw, err)
		}
	}
}

func TestNewPasswordService_Cost(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultCost},
		{bcrypt.MaxCost + 1, DefaultCost},
		{11, 11},
	}
	for _, tt := range tests {
		if got := NewPasswordService(tt.in).cost; got != tt.want {
			t.Errorf("NewPasswordService(%d).cost = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWipe(t *testing.T) {
	b := []byte("Badger$Forward1")
	Wipe(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d = %d after Wipe, want 0", i, c)
		}
	}
}

func TestPasswordService_VerifyRejectsOverlongInput(t *testing.T) {
	ps := fastPasswords()

	full := strings.Repeat("x", MaxPasswordBytes)
	hash, err := ps.Hash([]byte(full))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Same first 72 bytes, different password.
	if err := ps.Verify(hash, []byte(full+"-suffix")); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(72 bytes + suffix) = %v, want ErrPasswordMismatch", err)
	}
}
