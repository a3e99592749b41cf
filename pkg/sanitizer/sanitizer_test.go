package sanitizer

import "testing"

func TestDigitsOnly(t *testing.T) {
	cases := map[string]string{
		"123.456.789-00": "12345678900",
		" 12345678900 ":  "12345678900",
		"abc":            "",
		"":               "",
	}
	for input, want := range cases {
		if got := DigitsOnly(input); got != want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTrimAndNormalize(t *testing.T) {
	cases := map[string]string{
		"  Maria   Silva ": "Maria Silva",
		"one\t\ttwo":       "one two",
		"   ":              "",
	}
	for input, want := range cases {
		if got := TrimAndNormalize(input); got != want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizePhone_BrazilianNumber(t *testing.T) {
	got := SanitizePhone("(92) 99999-1234")
	if got != "+5592999991234" {
		t.Errorf("expected E.164 normalization, got %q", got)
	}
}

func TestSanitizePhone_PassesThroughUnparsable(t *testing.T) {
	if got := SanitizePhone("hello"); got != "hello" {
		t.Errorf("expected pass-through, got %q", got)
	}
	if got := SanitizePhone(""); got != "" {
		t.Errorf("expected empty pass-through, got %q", got)
	}
}
