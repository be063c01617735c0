package validator

import (
	"testing"
	"time"
)

func TestValidateCustomMessages(t *testing.T) {
	t.Parallel()

	type Req struct {
		Name string `json:"name" validate:"required,max=8" error_msg:"required:name is required|max:name too long"`
	}

	v := New()

	err := v.Validate(&Req{})
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if got := verr.Get("name"); len(got) != 1 || got[0] != "name is required" {
		t.Fatalf("unexpected messages: %v", got)
	}

	if err := v.Validate(&Req{Name: "way-too-long-name"}); err == nil {
		t.Fatalf("expected max violation")
	}
	if err := v.Validate(&Req{Name: "ok"}); err != nil {
		t.Fatalf("valid input should pass: %v", err)
	}
}

func TestValidateNestedStructValueInput(t *testing.T) {
	t.Parallel()

	type Inner struct {
		Email string `json:"email" validate:"required,email" error_msg:"required:email required|email:email invalid"`
	}
	type Req struct {
		Inner Inner `json:"inner"`
		When  time.Time
	}

	v := New()

	err := v.Validate(Req{})
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	verr := err.(*ValidationError)
	if got := verr.Get("inner.email"); len(got) != 1 || got[0] != "email required" {
		t.Fatalf("nested field should use json path, got: %v", verr.Errors)
	}
}

func TestValidateFallbackMessage(t *testing.T) {
	t.Parallel()

	type Req struct {
		Plan string `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	}

	v := New()

	err := v.Validate(&Req{Plan: "gold"})
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}
	verr := err.(*ValidationError)
	if got := verr.Get("plan"); len(got) != 1 || got[0] != "failed on oneof=free pro enterprise" {
		t.Fatalf("unexpected fallback message: %v", got)
	}
}

func TestValidateNilAndNonStruct(t *testing.T) {
	t.Parallel()

	v := New()
	if err := v.Validate(nil); err != nil {
		t.Fatalf("nil input should pass: %v", err)
	}
	if err := v.Validate("not a struct"); err != nil {
		t.Fatalf("non-struct input should pass: %v", err)
	}
	var nilReq *struct {
		Name string `validate:"required"`
	}
	if err := v.Validate(nilReq); err != nil {
		t.Fatalf("nil pointer should pass: %v", err)
	}
}
