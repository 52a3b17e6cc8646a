package config

import "strings"

// RetryBackoffMode selects how the daemon spaces retries of a failed blog
// sync.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff maps daemon.retry.backoff to a mode, ignoring case
// and surrounding space. Unknown values yield "".
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch mode := RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		return mode
	default:
		return ""
	}
}
