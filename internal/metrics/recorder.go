package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailure  ResultLabel = "failure"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for menu operations. Implementations
// may forward to Prometheus or elsewhere. All methods must be safe for nil
// receivers.
type Recorder interface {
	ObserveOperationDuration(operation string, d time.Duration)
	// IncOperationResult counts an outcome; category is the error category
	// for failures and empty on success.
	IncOperationResult(operation string, result ResultLabel, category string)
	SetSyncedMenus(blogID int64, menus, locations int)
	IncSyncRetry(blogID int64)
	IncSyncRetryExhausted(blogID int64)
	IncObserverFailure(observer string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveOperationDuration(string, time.Duration)  {}
func (NoopRecorder) IncOperationResult(string, ResultLabel, string) {}
func (NoopRecorder) SetSyncedMenus(int64, int, int)                 {}
func (NoopRecorder) IncSyncRetry(int64)                             {}
func (NoopRecorder) IncSyncRetryExhausted(int64)                    {}
func (NoopRecorder) IncObserverFailure(string)                      {}
