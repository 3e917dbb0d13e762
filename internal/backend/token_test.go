// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import (
	"testing"
	"time"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("secret", time.Minute)

	token, err := s.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	p, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p != "user-1" {
		t.Errorf("principal = %q, want user-1", p)
	}
}

func TestSigner_WrongSecret(t *testing.T) {
	token, err := NewSigner("secret", time.Minute).Sign("user-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := NewSigner("other", time.Minute).Verify(token); err == nil {
		t.Fatal("expected error verifying with wrong secret")
	}
}

func TestSigner_Expired(t *testing.T) {
	s := NewSigner("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	s.now = time.Now
	if _, err := s.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestSigner_EmptySecret(t *testing.T) {
	if _, err := NewSigner("", time.Minute).Sign("user-1"); err == nil {
		t.Fatal("expected error signing without a secret")
	}
}

func TestSigner_DefaultTTL(t *testing.T) {
	if got := NewSigner("secret", 0).ttl; got != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", got, DefaultTokenTTL)
	}
}
