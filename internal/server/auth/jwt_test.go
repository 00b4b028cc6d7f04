package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("jane", "manager", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.Username != "jane" {
		t.Fatalf("username mismatch: got %q want %q", claims.Username, "jane")
	}
	if claims.Role != "manager" {
		t.Fatalf("role mismatch: got %q want %q", claims.Role, "manager")
	}
	if claims.Issuer != "eventcall-proxy" {
		t.Fatalf("issuer mismatch: got %q", claims.Issuer)
	}

	got, err := GetUsernameFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUsernameFromToken error: %v", err)
	}
	if got != "jane" {
		t.Fatalf("username mismatch: got %q want %q", got, "jane")
	}
}

func TestGetUsernameFromToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("jane", "", []byte("secret"), -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err = GetUsernameFromToken(tok, []byte("secret")); err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
}

func TestGetUsernameFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("jane", "", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err = GetUsernameFromToken(tok, []byte("wrong-secret")); err == nil {
		t.Fatalf("expected error for invalid signature, got nil")
	}
}

func TestGetUsernameFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	if _, err := GetUsernameFromToken("not.a.jwt", []byte("k")); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}

func TestParseToken_RejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	// header {"alg":"none","typ":"JWT"} with an empty signature
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VybmFtZSI6ImphbmUifQ."

	if _, err := ParseToken(unsigned, []byte("secret")); err == nil {
		t.Fatalf("expected error for alg=none token, got nil")
	}
}
