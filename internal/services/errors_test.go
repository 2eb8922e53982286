package services_test

import (
	"errors"
	"strings"
	"testing"

	"stemstrip/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "separate", "demucs", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"separate", "demucs", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "repack", "", "odd failure", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestCategoryMapping(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{services.ErrValidation, "validation"},
		{services.ErrConfiguration, "configuration"},
		{services.ErrNotFound, "not found"},
		{services.ErrTimeout, "timeout"},
		{services.ErrExternalTool, "external tool"},
		{services.ErrTransient, "transient"},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "unpack", "psarc", "failed", nil)
		if got := services.Category(err); got != tc.want {
			t.Fatalf("Category(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := services.Category(nil); got != "" {
		t.Fatalf("Category(nil) = %q, want empty", got)
	}
	if got := services.Category(errors.New("bare")); got != "transient" {
		t.Fatalf("Category(bare) = %q, want transient", got)
	}
}
