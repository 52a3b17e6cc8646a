package errors

// ErrorCategory says which part of the system an error came from. The CLI
// maps it to an exit code and metrics use it as a label.
type ErrorCategory string

const (
	// Caller input and setup.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategorySecrets    ErrorCategory = "secrets"
	CategoryNotFound   ErrorCategory = "not_found"

	// Remote API.
	CategoryNetwork ErrorCategory = "network"
	CategoryRemote  ErrorCategory = "remote"

	// Local side effects.
	CategoryPersistence ErrorCategory = "persistence"
	CategoryEventStore  ErrorCategory = "eventstore"
	CategoryNotify      ErrorCategory = "notify"

	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // the process cannot continue
	SeverityError   ErrorSeverity = "error"   // the operation failed
	SeverityWarning ErrorSeverity = "warning" // degraded, work continues
)

// RetryStrategy tells callers whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit"
	RetryUserAction RetryStrategy = "user" // fix credentials or config first
)

// ErrorContext holds structured fields such as blog_id or menu_id.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// GetBool retrieves a bool value.
func (c ErrorContext) GetBool(key string) (value, ok bool) {
	value, ok = c[key].(bool)
	return value, ok
}

// GetInt64 retrieves an integer value stored as int64 or int.
func (c ErrorContext) GetInt64(key string) (int64, bool) {
	switch v := c[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
