package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTransient, "publish", "upload video", "request failed", cause)

	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected error to match ErrTransient, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected error to match cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "publish: upload video: request failed") {
		t.Fatalf("unexpected error text: %s", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "script", "complete", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("nil marker should default to ErrTransient, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	cause := errors.New("http 429")
	err := Wrap(ErrTransient, "script", "chat completion", "rate limited", cause)

	details := Details(err)
	if details.Kind != KindTransient {
		t.Fatalf("kind = %s, want %s", details.Kind, KindTransient)
	}
	if details.Stage != "script" {
		t.Fatalf("stage = %q, want script", details.Stage)
	}
	if details.Operation != "chat completion" {
		t.Fatalf("operation = %q", details.Operation)
	}
	if details.Message != "rate limited" {
		t.Fatalf("message = %q", details.Message)
	}
	if details.Cause != cause {
		t.Fatalf("cause not preserved")
	}
}

func TestDetailsPlainError(t *testing.T) {
	details := Details(errors.New("boom"))
	if details.Kind != KindUnknown {
		t.Fatalf("kind = %s, want unknown", details.Kind)
	}
	if details.Message != "boom" {
		t.Fatalf("message = %q", details.Message)
	}
	if details.Stage != "" {
		t.Fatalf("stage should be empty for plain errors")
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		name   string
		marker error
		want   bool
	}{
		{"validation", ErrValidation, true},
		{"configuration", ErrConfiguration, true},
		{"not found", ErrNotFound, true},
		{"transient", ErrTransient, false},
		{"external tool", ErrExternalTool, false},
		{"timeout", ErrTimeout, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Wrap(tc.marker, "composition", "compose", "", nil)
			if got := IsPermanent(err); got != tc.want {
				t.Fatalf("IsPermanent = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyInfrastructure(t *testing.T) {
	err := Wrap(ErrInfrastructure, "", "fetch pending", "sheet unreachable", errors.New("dial tcp"))
	if Details(err).Kind != KindInfrastructure {
		t.Fatalf("expected infrastructure kind")
	}
}
