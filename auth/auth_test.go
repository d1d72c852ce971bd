// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
)

func TestNewSharedSecret_RejectsEmpty(t *testing.T) {
	_, err := NewSharedSecret("")
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("NewSharedSecret(\"\") error = %v, want ErrEmptySecret", err)
	}
}

func TestSharedSecret_Validate(t *testing.T) {
	guard, err := NewSharedSecret("backoffice-secret")
	if err != nil {
		t.Fatalf("NewSharedSecret() error = %v", err)
	}

	tests := []struct {
		name      string
		presented string
		want      bool
	}{
		{"exact match", "backoffice-secret", true},
		{"wrong secret", "other-secret", false},
		{"prefix", "backoffice", false},
		{"longer", "backoffice-secret-extra", false},
		{"case differs", "Backoffice-Secret", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.Validate(tt.presented); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.presented, got, tt.want)
			}
		})
	}
}

func TestSharedSecret_NilGuardRejects(t *testing.T) {
	var guard *SharedSecret
	if guard.Validate("anything") {
		t.Error("nil guard should reject every secret")
	}
}

func TestSharedSecret_DistinctGuards(t *testing.T) {
	// The ballot boundary and the admin boundary use different secrets
	ballots, _ := NewSharedSecret("ballot-secret")
	admin, _ := NewSharedSecret("admin-secret")

	if ballots.Validate("admin-secret") {
		t.Error("ballot guard accepted the admin secret")
	}
	if admin.Validate("ballot-secret") {
		t.Error("admin guard accepted the ballot secret")
	}
}

func TestGuardFunc(t *testing.T) {
	var g Guard = GuardFunc(func(presented string) bool { return presented == "ok" })

	if !g.Validate("ok") {
		t.Error("GuardFunc should accept \"ok\"")
	}
	if g.Validate("nope") {
		t.Error("GuardFunc should reject \"nope\"")
	}
}
