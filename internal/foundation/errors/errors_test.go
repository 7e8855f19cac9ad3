package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "multipage.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "multipage.yaml" {
			t.Errorf("expected context file=multipage.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		inner := DiscoveryError("list pages").Build()
		wrapped := fmt.Errorf("configure: %w", inner)

		if !HasCategory(wrapped, CategoryDiscovery) {
			t.Error("expected wrapped error to keep discovery category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to map to internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("rename failed")
	err := WrapError(originalErr, CategoryFileSystem, "move page output").
		Warning().
		WithContext("page", "alpha").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if got := err.Error(); got != "[filesystem:warning] move page output: rename failed" {
		t.Errorf("unexpected message %q", got)
	}

	withMore := err.WithContext("target", "alpha.html")
	if _, ok := err.Context().GetString("target"); ok {
		t.Error("WithContext must not mutate the receiver")
	}
	if target, _ := withMore.Context().GetString("target"); target != "alpha.html" {
		t.Errorf("expected target context, got %q", target)
	}
}

func TestErrorIs(t *testing.T) {
	a := BuildError("bundle failed").Build()
	b := BuildError("bundle failed").WithContext("entry", "x").Build()
	c := BuildError("other").Build()

	if !errors.Is(a, b) {
		t.Error("errors with same category and message should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different messages should not match")
	}
}
