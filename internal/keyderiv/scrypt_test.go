package keyderiv

import (
	"errors"
	"testing"

	"github.com/toeirei/passmaster/internal/security"
)

var fast = Scrypt{N: 16, R: 1, P: 1, KeyLen: 32, Namespace: "test"}

func TestDeriveIsDeterministic(t *testing.T) {
	a, err := fast.Derive("alice", security.FromString("pw"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	b, _ := fast.Derive("alice", security.FromString("pw"))
	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}
	if !a.Equal(b) {
		t.Fatalf("same input produced different keys")
	}
}

func TestDeriveSeparatesInputs(t *testing.T) {
	base, _ := fast.Derive("alice", security.FromString("pw"))
	cases := []struct {
		name string
		s    Scrypt
		user string
		pw   string
	}{
		{"other password", fast, "alice", "pw2"},
		{"other user", fast, "bob", "pw"},
		{"other namespace", Scrypt{N: 16, R: 1, P: 1, KeyLen: 32, Namespace: "prod"}, "alice", "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := tc.s.Derive(tc.user, security.FromString(tc.pw))
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}
			if k.Equal(base) {
				t.Fatalf("expected a different key")
			}
		})
	}
}

func TestDeriveRejectsEmptyInput(t *testing.T) {
	if _, err := fast.Derive("", security.FromString("pw")); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	if _, err := fast.Derive("alice", nil); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("err = %v, want ErrEmptyPassword", err)
	}
}

func TestDeriveBadParameters(t *testing.T) {
	bad := Scrypt{N: 3, R: 1, P: 1, KeyLen: 32}
	if _, err := bad.Derive("alice", security.FromString("pw")); err == nil {
		t.Fatalf("expected error for N not a power of two")
	}
}

func TestSaltLengthPrefix(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	s1 := Scrypt{Namespace: "ab"}.salt("c")
	s2 := Scrypt{Namespace: "a"}.salt("bc")
	if string(s1) == string(s2) {
		t.Fatalf("salts collide")
	}
}
