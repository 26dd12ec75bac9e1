package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"toneexport/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEncode, "normalize", "clip 2", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encode error", "normalize", "clip 2", "ffmpeg failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNoClips, "", "", "", nil)
	if !errors.Is(err, services.ErrNoClips) {
		t.Fatalf("expected no clips marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "export failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"parse", services.Wrap(services.ErrParse, "load", "", "bad json", nil), "parse"},
		{"download", services.Wrap(services.ErrDownload, "fetch", "", "", errors.New("eof")), "download"},
		{"encode", services.Wrap(services.ErrEncode, "overlay", "", "", nil), "encode"},
		{"mix", services.Wrap(services.ErrMix, "mix", "", "", nil), "mix"},
		{"no clips", services.Wrap(services.ErrNoClips, "load", "", "", nil), "no_clips"},
		{"configuration", services.Wrap(services.ErrConfiguration, "preflight", "", "", nil), "configuration"},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), "canceled"},
		{"other", errors.New("mystery"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Kind(tt.err); got != tt.want {
				t.Fatalf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}
