package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	p := NewTokenPolicy("test-secret")
	token, err := p.Generate("alice", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := p.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("Username = %q", claims.Username)
	}
}

func TestAuthorize(t *testing.T) {
	p := NewTokenPolicy("test-secret")
	token, err := p.Generate("alice", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !p.Authorize("alice", token) {
		t.Fatal("valid token for matching nick rejected")
	}
	if p.Authorize("mallory", token) {
		t.Fatal("token accepted for a different nick")
	}
	if p.Authorize("alice", "not-a-token") {
		t.Fatal("garbage token accepted")
	}
	if p.Authorize("alice", "") {
		t.Fatal("empty password accepted")
	}
	if p.Authorize("", token) {
		t.Fatal("empty nick accepted")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewTokenPolicy("secret-a").Generate("alice", time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if NewTokenPolicy("secret-b").Authorize("alice", token) {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	p := NewTokenPolicy("test-secret")
	token, err := p.Generate("alice", -time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.Authorize("alice", token) {
		t.Fatal("expired token accepted")
	}
}
