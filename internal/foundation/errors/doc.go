// Package errors provides foundational, type-safe error primitives used across menusync.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (validation, network, remote, persistence, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning)
//   - RetryStrategy: Retry hint for callers (never, backoff, rate limit, user action)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// Example usage:
//
//	err := errors.RemoteError("menu update rejected").
//		WithCause(originalErr).
//		WithContext("blog_id", blogID).
//		WithContext("menu_id", menuID).
//		Build()
package errors
