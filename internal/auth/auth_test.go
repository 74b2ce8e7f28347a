package auth

import (
	"testing"
	"time"

	"github.com/healthcost-ai/backend/models"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cret-password" {
		t.Fatal("password stored in plaintext")
	}

	if err := CheckPassword(hash, "s3cret-password"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong-password"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	user := &models.User{
		ID:        42,
		Email:     "user@healthcost.ai",
		IsPremium: true,
	}

	token, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	profile, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if profile.UserID != "42" || profile.Email != "user@healthcost.ai" || !profile.IsPremium {
		t.Errorf("profile = %+v, want user 42 premium", profile)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := issuer.IssueToken(&models.User{ID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	if _, err := verifier.ParseToken(token); err == nil {
		t.Error("token signed with a different secret was accepted")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.IssueToken(&models.User{ID: 1, Email: "a@b.c"})
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	if _, err := svc.ParseToken(token); err == nil {
		t.Error("expired token was accepted")
	}
}
