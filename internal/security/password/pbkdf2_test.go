package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	phc, err := Hash(Default, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if !strings.HasPrefix(phc, "$pbkdf2-sha256$i=") {
		t.Fatalf("unexpected PHC format: %q", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Fatal("expected verify to succeed")
	}
	if Verify("wrong password", phc) {
		t.Fatal("wrong password must not verify")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	t.Parallel()

	a, err := Hash(Default, "same input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash(Default, "same input")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
	if !Verify("same input", a) || !Verify("same input", b) {
		t.Fatal("both hashes must verify")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	t.Parallel()

	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("empty password must be rejected")
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$pbkdf2-sha256$i=abc$c2FsdA$ZGs",
		"$pbkdf2-sha256$i=0$c2FsdA$ZGs",
		"$pbkdf2-sha256$i=1000$!!!$ZGs",
		"$pbkdf2-sha256$i=1000$c2FsdA$!!!",
	} {
		if Verify("anything", phc) {
			t.Fatalf("malformed PHC %q must not verify", phc)
		}
	}
}
