package util

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	plain := NewID("")
	if len(plain) != 32 || strings.Contains(plain, "-") {
		t.Fatalf("unexpected id %q", plain)
	}
	prefixed := NewID("ctr")
	if !strings.HasPrefix(prefixed, "ctr_") || len(prefixed) != 36 {
		t.Fatalf("unexpected prefixed id %q", prefixed)
	}
	if NewID("") == NewID("") {
		t.Fatal("expected distinct ids")
	}
}
