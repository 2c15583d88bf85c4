package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "amy", false, time.Now())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != "amy" {
		t.Errorf("expected userId 'amy', got %q", claims.UserID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "amy", false, time.Now())

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", "amy", false, time.Now().Add(-25*time.Hour))

	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	tests := []struct {
		name     string
		remember bool
		expected time.Duration
	}{
		{"session", false, 24 * time.Hour},
		{"remember seven days", true, 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			token, _ := GenerateToken("test", "amy", tt.remember, now)
			claims, err := ValidateToken("test", token)
			if err != nil {
				t.Fatalf("ValidateToken: %v", err)
			}

			diff := claims.ExpiresAt.Time.Sub(now.Add(tt.expected))
			if diff > time.Second || diff < -time.Second {
				t.Errorf("expiry off by %v", diff)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
