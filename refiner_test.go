package bitserializer

import "testing"

func TestTrimWhitespace(t *testing.T) {
	r := TrimWhitespace()
	if got := r("  ada  "); got != "ada" {
		t.Errorf("got %q, want %q", got, "ada")
	}
	if got := r("no-padding"); got != "no-padding" {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestToLowerCase(t *testing.T) {
	r := ToLowerCase()
	if got := r("ADA Lovelace"); got != "ada lovelace" {
		t.Errorf("got %q, want %q", got, "ada lovelace")
	}
}
