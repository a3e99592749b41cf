package validation

import (
	"strings"
	"testing"
)

type sample struct {
	ID    string `validate:"omitempty,mongodb"`
	Name  string `validate:"required,min=2,max=10"`
	Email string `validate:"omitempty,email"`
	Kind  string `validate:"omitempty,oneof=a b c"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(&sample{ID: "507f1f77bcf86cd799439011", Name: "ok", Kind: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_TranslatesFieldErrors(t *testing.T) {
	v := New()
	err := v.Struct(&sample{ID: "nope", Email: "not-an-email", Kind: "z"})
	if err == nil {
		t.Fatal("expected error")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(verrs), verrs)
	}

	msg := verrs.Error()
	for _, want := range []string{
		"ID must be a valid MongoDB ObjectID",
		"Name is required",
		"Email must be a valid email address",
		"Kind must be one of: a b c",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
