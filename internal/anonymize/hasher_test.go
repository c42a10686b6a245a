package anonymize

import (
	"strings"
	"testing"
)

func TestHashIDShapeAndDeterminism(t *testing.T) {
	h := NewHasher("test-secret")

	a := h.HashID("user-1")
	b := h.HashID("user-1")
	c := h.HashID("user-2")

	if a != b {
		t.Fatal("same input must hash identically")
	}
	if a == c {
		t.Fatal("different inputs must not collide")
	}
	if !strings.HasPrefix(a, "anon_") || len(a) != len("anon_")+32 {
		t.Fatalf("unexpected hash shape: %q", a)
	}
	if a == "user-1" || strings.Contains(a, "user-1") {
		t.Fatalf("hash leaks input: %q", a)
	}
}

func TestHashIDKeyed(t *testing.T) {
	// Different deployment secrets must produce unlinkable hashes.
	if NewHasher("k1").HashID("user-1") == NewHasher("k2").HashID("user-1") {
		t.Fatal("hashes must depend on the secret")
	}
}

func TestHashFieldSeparatesFields(t *testing.T) {
	h := NewHasher("test-secret")
	if h.HashField("location", "kitchen") == h.HashField("device", "kitchen") {
		t.Fatal("equal values in different fields must hash differently")
	}
	if len(h.HashField("location", "kitchen")) != 16 {
		t.Fatalf("unexpected field hash length")
	}
}

func TestNewHasherRequiresSecret(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty secret")
		}
	}()
	NewHasher("")
}
