package security

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"univote/contexts/campus-elections/election-service/domain/entities"
)

func TestJWTIssuerRoundTripsPrincipal(t *testing.T) {
	issuer, err := NewJWTIssuer("0123456789abcdef-test", "univote")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	principal := entities.Principal{ID: "voter-1", Role: entities.RoleVoter, DisplayName: "Ada Lovelace"}
	token, err := issuer.Issue(principal, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parsed, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != principal {
		t.Fatalf("expected %+v, got %+v", principal, parsed)
	}
}

func TestJWTIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer, _ := NewJWTIssuer("0123456789abcdef-test", "univote")
	other, _ := NewJWTIssuer("fedcba9876543210-other", "univote")
	principal := entities.Principal{ID: "admin-1", Role: entities.RoleAdmin}

	expired, err := issuer.Issue(principal, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}

	foreign, err := other.Issue(principal, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(foreign); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
	if _, err := issuer.Parse("not-a-token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}

func TestNewJWTIssuerRequiresSecret(t *testing.T) {
	if _, err := NewJWTIssuer("short", "univote"); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !hasher.Compare(hash, "s3cret") {
		t.Fatal("expected password to match")
	}
	if hasher.Compare(hash, "wrong") || hasher.Compare("", "s3cret") {
		t.Fatal("expected mismatch")
	}
}
