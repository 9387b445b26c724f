package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// testParams keep unit tests fast. Production hashes use DefaultArgon2Params.
var testParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashPassword_Format(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash should have 6 parts, got: %d", len(parts))
	}
	if parts[1] != "argon2id" {
		t.Errorf("Expected argon2id algorithm, got: %s", parts[1])
	}
	if parts[2] != "v=19" {
		t.Errorf("Expected v=19, got: %s", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("Expected m=65536,t=3,p=4, got: %s", parts[3])
	}
}

func TestHash_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	passwords := []string{"hunter22", "pässwörd-ünïcode", " leading and trailing ", strings.Repeat("x", 200)}

	for _, pw := range passwords {
		hash, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) failed: %v", pw, err)
		}
		if !h.Verify(pw, hash) {
			t.Errorf("Verify(%q, Hash(%q)) = false, want true", pw, pw)
		}
	}
}

func TestHash_Uniqueness(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	hash1, _ := h.Hash("same-password")
	hash2, _ := h.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}
	if !h.Verify("same-password", hash1) || !h.Verify("same-password", hash2) {
		t.Error("Both hashes should verify correctly")
	}
}

func TestVerify_Mismatch(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	hash, _ := h.Hash("the-real-password")

	for _, wrong := range []string{"the-real-passwore", "The-real-password", "", "the-real-password "} {
		if h.Verify(wrong, hash) {
			t.Errorf("Verify(%q) = true, want false", wrong)
		}
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA"},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=4$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA"},
		{"missing parts", "$argon2id$v=19$m=65536,t=3,p=4"},
		{"bad params", "$argon2id$v=19$m=abc,t=3,p=4$c2FsdA$aGFzaA"},
		{"zero threads", "$argon2id$v=19$m=65536,t=3,p=0$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA"},
		{"absurd memory", "$argon2id$v=19$m=99999999,t=3,p=4$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaGhhc2hoYXNoaGFzaA"},
		{"short key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaA"},
		{"bad bcrypt", "$2a$10$tooshort"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if h.Verify("password", tt.hash) {
				t.Errorf("Verify with %s hash = true, want false", tt.name)
			}
		})
	}
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	t.Parallel()

	legacy, err := bcrypt.GenerateFromPassword([]byte("spring-era-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	h := NewPasswordHasher(testParams)
	if !h.Verify("spring-era-password", string(legacy)) {
		t.Error("legacy bcrypt hash should verify")
	}
	if h.Verify("wrong", string(legacy)) {
		t.Error("legacy bcrypt hash should reject wrong password")
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Error("bcrypt hash should need rehash")
	}
}

func TestNeedsRehash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	current, _ := h.Hash("pw")
	if h.NeedsRehash(current) {
		t.Error("hash with current params should not need rehash")
	}

	stronger := NewPasswordHasher(Argon2Params{Time: 2, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	if !stronger.NeedsRehash(current) {
		t.Error("hash with weaker params should need rehash")
	}
	if !h.NeedsRehash("garbage") {
		t.Error("malformed hash should need rehash")
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	a := QuickHash("203.0.113.7")
	if len(a) != 32 {
		t.Errorf("QuickHash length = %d, want 32", len(a))
	}
	if a != QuickHash("203.0.113.7") {
		t.Error("QuickHash should be deterministic")
	}
	if a == QuickHash("203.0.113.8") {
		t.Error("QuickHash should differ for different inputs")
	}
}

func TestPackageHelpers_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("portfolio-secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("portfolio-secret", hash) {
		t.Error("VerifyPassword should accept the hashed password")
	}
	if VerifyPassword("portfolio-secreT", hash) {
		t.Error("VerifyPassword should reject a different password")
	}
}
