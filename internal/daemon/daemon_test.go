package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/services/menus"
)

const testConfig = `
version: "1"
blogs:
  - id: 1
    hosted: true
  - id: 2
    jetpack_connected: true
  - id: 3
    url: https://self-hosted.example.org
daemon:
  sync_interval: 1h
  metrics_addr: 127.0.0.1:0
  concurrency: 2
  retry:
    backoff: fixed
    initial_delay: 1ms
    max_delay: 5ms
    max_retries: 2
`

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

// fakeSyncer returns queued errors per blog, then success.
type fakeSyncer struct {
	mu       sync.Mutex
	errs     map[int64][]error
	calls    map[int64]int
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	synced   chan int64
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{errs: make(map[int64][]error), calls: make(map[int64]int)}
}

func (f *fakeSyncer) SyncMenus(_ context.Context, blog *model.Blog) (menus.SyncResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls[blog.ID]++
	var err error
	if q := f.errs[blog.ID]; len(q) > 0 {
		err, f.errs[blog.ID] = q[0], q[1:]
	}
	f.mu.Unlock()

	if f.synced != nil {
		select {
		case f.synced <- blog.ID:
		default:
		}
	}
	if err != nil {
		return menus.SyncResult{}, err
	}
	return menus.SyncResult{
		Menus:     []*model.Menu{{ID: 1, BlogID: blog.ID}},
		Locations: []model.MenuLocation{{BlogID: blog.ID, Name: "primary"}},
		Changed:   1,
	}, nil
}

func (f *fakeSyncer) callCount(blogID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[blogID]
}

type retryRecorder struct {
	metrics.NoopRecorder
	retries   atomic.Int32
	exhausted atomic.Int32
}

func (r *retryRecorder) IncSyncRetry(int64)          { r.retries.Add(1) }
func (r *retryRecorder) IncSyncRetryExhausted(int64) { r.exhausted.Add(1) }

func TestRunOnceSyncsSupportedBlogs(t *testing.T) {
	defer goleak.VerifyNone(t)

	syncer := newFakeSyncer()
	d, err := New(parseConfig(t, testConfig), syncer, Options{})
	require.NoError(t, err)

	report := d.RunOnce(context.Background())
	require.Len(t, report.Blogs, 2)
	require.Equal(t, []int64{3}, report.Skipped)
	require.Zero(t, report.Failed())
	require.Equal(t, 1, report.Blogs[0].Menus)
	require.Equal(t, 1, report.Blogs[1].Locations)
	require.Zero(t, syncer.callCount(3))
	require.NotEmpty(t, report.ID)

	last, ok := d.LastRound()
	require.True(t, ok)
	require.Equal(t, report.ID, last.ID)
}

func TestRunOnceRetriesTransientFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	syncer := newFakeSyncer()
	syncer.errs[1] = []error{
		errors.NetworkError("connection reset").Build(),
		errors.RemoteError("server error").Retryable().Build(),
	}
	rec := &retryRecorder{}
	d, err := New(parseConfig(t, testConfig), syncer, Options{Recorder: rec})
	require.NoError(t, err)

	report := d.RunOnce(context.Background())
	require.Zero(t, report.Failed())
	require.Equal(t, 3, report.Blogs[0].Attempts)
	require.EqualValues(t, 2, rec.retries.Load())
	require.Zero(t, rec.exhausted.Load())
}

func TestRunOnceGivesUpAfterMaxRetries(t *testing.T) {
	syncer := newFakeSyncer()
	transient := errors.NetworkError("timeout").Build()
	syncer.errs[2] = []error{transient, transient, transient, transient}
	rec := &retryRecorder{}
	d, err := New(parseConfig(t, testConfig), syncer, Options{Recorder: rec})
	require.NoError(t, err)

	report := d.RunOnce(context.Background())
	require.Equal(t, 1, report.Failed())
	require.Equal(t, 3, syncer.callCount(2))
	require.EqualValues(t, 1, rec.exhausted.Load())

	var failed BlogResult
	for _, b := range report.Blogs {
		if b.BlogID == 2 {
			failed = b
		}
	}
	require.Equal(t, string(errors.CategoryNetwork), failed.Category)
	require.Equal(t, 3, failed.Attempts)
}

func TestRunOnceDoesNotRetryPermanentFailures(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.errs[1] = []error{errors.AuthError("invalid token").Build()}
	rec := &retryRecorder{}
	d, err := New(parseConfig(t, testConfig), syncer, Options{Recorder: rec})
	require.NoError(t, err)

	report := d.RunOnce(context.Background())
	require.Equal(t, 1, report.Failed())
	require.Equal(t, 1, syncer.callCount(1))
	require.Equal(t, 1, syncer.callCount(2), "other blogs still sync")
	require.Zero(t, rec.retries.Load())
}

func TestRunOnceRespectsConcurrency(t *testing.T) {
	cfgYAML := `
version: "1"
blogs:
  - {id: 1, hosted: true}
  - {id: 2, hosted: true}
  - {id: 3, hosted: true}
  - {id: 4, hosted: true}
  - {id: 5, hosted: true}
daemon:
  concurrency: 2
`
	syncer := newFakeSyncer()
	syncer.delay = 20 * time.Millisecond
	d, err := New(parseConfig(t, cfgYAML), syncer, Options{})
	require.NoError(t, err)

	report := d.RunOnce(context.Background())
	require.Len(t, report.Blogs, 5)
	require.LessOrEqual(t, syncer.peak.Load(), int32(2))
}

func TestHealthAndStatusEndpoints(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.errs[1] = []error{errors.ValidationError("bad").Build()}
	reg := prom.NewRegistry()
	d, err := New(parseConfig(t, testConfig), syncer, Options{Registry: reg})
	require.NoError(t, err)
	srv := httptest.NewServer(d.routes())
	defer srv.Close()

	health := getJSON[HealthResponse](t, srv.URL+"/healthz", http.StatusOK)
	require.Equal(t, HealthStatusHealthy, health.Status)

	d.RunOnce(context.Background())

	health = getJSON[HealthResponse](t, srv.URL+"/healthz", http.StatusOK)
	require.Equal(t, HealthStatusDegraded, health.Status)
	require.Equal(t, "last_sync", health.Checks[len(health.Checks)-1].Name)

	status := getJSON[RoundReport](t, srv.URL+"/status", http.StatusOK)
	require.Len(t, status.Blogs, 2)
	require.Equal(t, 1, status.Failed())

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")
}

func getJSON[T any](t *testing.T, url string, wantCode int) T {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode)
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRunServesAndStops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menusync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	syncer := newFakeSyncer()
	syncer.synced = make(chan int64, 8)
	d, err := New(parseConfig(t, testConfig), syncer, Options{ConfigPath: path, ReloadDebounce: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-syncer.synced:
	case <-time.After(5 * time.Second):
		t.Fatal("first sync round did not run")
	}

	require.Eventually(t, func() bool { return d.http != nil && d.http.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	health := getJSON[HealthResponse](t, "http://"+d.http.Addr()+"/healthz", http.StatusOK)
	names := make([]string, 0, len(health.Checks))
	for _, c := range health.Checks {
		names = append(names, c.Name)
	}
	require.Subset(t, names, []string{serviceHTTP, serviceScheduler, serviceWatcher})

	reloaded := strings.Replace(testConfig, "sync_interval: 1h", "sync_interval: 2h", 1)
	require.NoError(t, os.WriteFile(path, []byte(reloaded), 0o600))
	require.Eventually(t, func() bool { return d.Config().Daemon.SyncInterval == "2h" }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, newFakeSyncer(), Options{})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = New(parseConfig(t, testConfig), nil, Options{})
	require.Error(t, err)
	require.False(t, stderrors.Is(err, context.Canceled))
}
