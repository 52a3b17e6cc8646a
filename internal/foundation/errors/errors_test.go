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
			WithContext("file", "menusync.yaml").
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
		if !exists || file != "menusync.yaml" {
			t.Errorf("expected context file=menusync.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if _, ok := AsClassified(err); !ok {
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

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := NetworkError("connection reset").Build()
		wrapped := fmt.Errorf("sync blog 42: %w", inner)

		if !HasCategory(wrapped, CategoryNetwork) {
			t.Error("expected wrapped error to keep network category")
		}
		if GetCategory(wrapped) != CategoryNetwork {
			t.Errorf("GetCategory() = %s", GetCategory(wrapped))
		}
		if !IsTransient(wrapped) {
			t.Error("expected wrapped network error to be transient")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to map to internal")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := NewError(CategoryNetwork, "network failure").
			WithCause(originalErr).
			Warning().
			Retryable().
			WithContext("host", "public-api.example.com").
			WithContext("port", 443).
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		host, _ := err.Context().GetString("host")
		if host != "public-api.example.com" {
			t.Errorf("expected host context, got %s", host)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityError, RetryNever},
			{"AuthError", AuthError("test"), CategoryAuth, SeverityError, RetryUserAction},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryNever},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryBackoff},
			{"RemoteError", RemoteError("test"), CategoryRemote, SeverityError, RetryNever},
			{"PersistenceError", PersistenceError("test"), CategoryPersistence, SeverityError, RetryNever},
			{"EventStoreError", EventStoreError("test"), CategoryEventStore, SeverityError, RetryNever},
			{"NotifyError", NotifyError("test"), CategoryNotify, SeverityError, RetryBackoff},
			{"DaemonError", DaemonError("test"), CategoryDaemon, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestClassifiedErrorWithContextCopies(t *testing.T) {
	sentinel := PersistenceError("menu not saved").Build()
	derived := sentinel.WithContext("menu_id", int64(7))

	if _, ok := sentinel.Context().Get("menu_id"); ok {
		t.Error("WithContext must not modify the receiver")
	}
	if v, ok := derived.Context().Get("menu_id"); !ok || v != int64(7) {
		t.Errorf("expected menu_id=7 on derived error, got %v", v)
	}
	if !errors.Is(derived, sentinel) {
		t.Error("derived error should match its sentinel")
	}
}

func TestErrorContext(t *testing.T) {
	ctx := make(ErrorContext)
	ctx = ctx.Set("key1", "value1")
	ctx = ctx.Set("key2", 42)
	ctx = ctx.Set("flag", true)

	if v, ok := ctx.GetString("key1"); !ok || v != "value1" {
		t.Errorf("expected key1=value1, got %v", v)
	}
	if v, ok := ctx.Get("key2"); !ok || v != 42 {
		t.Errorf("expected key2=42, got %v", v)
	}
	if v, ok := ctx.GetBool("flag"); !ok || !v {
		t.Errorf("expected flag=true, got %v", v)
	}
	if _, ok := ctx.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}
	if v, ok := ctx.GetInt64("key2"); !ok || v != 42 {
		t.Errorf("expected key2 as int64, got %v", v)
	}
	if _, ok := ctx.GetString("key2"); ok {
		t.Error("expected GetString to reject a non-string value")
	}

	var empty ErrorContext
	if _, ok := empty.Get("key1"); ok {
		t.Error("expected nil context lookups to miss")
	}
}

func TestClassifiedErrorString(t *testing.T) {
	err := RemoteError("menu update rejected").
		WithContext("menu_id", int64(7)).
		WithContext("blog_id", int64(42)).
		WithCause(errors.New("status 400")).
		Build()

	want := "[remote] menu update rejected (blog_id=42 menu_id=7): status 400"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := NotFoundError("menu not found").Build().Error(); got != "[not_found] menu not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSentinelWrap(t *testing.T) {
	sentinel := EventStoreError("failed to append event").Build()
	cause := errors.New("disk full")
	wrapped := sentinel.Wrap(cause)

	if !errors.Is(wrapped, sentinel) {
		t.Error("wrapped error should match its sentinel")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should expose its cause")
	}
	if sentinel.Unwrap() != nil {
		t.Error("Wrap must not modify the sentinel")
	}
}

func TestBuilderReuse(t *testing.T) {
	b := ValidationError("menu name is required")
	first := b.Build()
	second := b.WithContext("blog_id", int64(42)).Build()

	if _, ok := first.Context().Get("blog_id"); ok {
		t.Error("building again must not change earlier errors")
	}
	if _, ok := second.Context().GetInt64("blog_id"); !ok {
		t.Error("expected blog_id on the second error")
	}
}
