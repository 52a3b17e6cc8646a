package services

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// mockRunner is a test Runner that records start and stop order.
type mockRunner struct {
	name       string
	startDelay time.Duration
	failStart  bool
	failStop   bool
	running    bool
	log        *eventLog
	mu         sync.Mutex
}

type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, s)
}

func (m *mockRunner) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startDelay > 0 {
		select {
		case <-time.After(m.startDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.failStart {
		return stderrors.New("mock start failure")
	}
	m.running = true
	m.log.add("start " + m.name)
	return nil
}

func (m *mockRunner) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStop {
		return stderrors.New("mock stop failure")
	}
	m.running = false
	m.log.add("stop " + m.name)
	return nil
}

func (m *mockRunner) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func newMock(log *eventLog, name string, deps ...string) (*mockRunner, *RunnerService) {
	r := &mockRunner{name: name, log: log}
	return r, NewRunnerService(name, r, name+" down", deps...)
}

func TestServiceOrchestrator(t *testing.T) {
	ctx := context.Background()

	t.Run("single service lifecycle", func(t *testing.T) {
		o := NewServiceOrchestrator()
		r, svc := newMock(nil, "http")
		require.NoError(t, o.RegisterService(svc))

		require.NoError(t, o.StartAll(ctx))
		require.True(t, r.IsRunning())

		info, ok := o.ServiceInfo("http")
		require.True(t, ok)
		require.Equal(t, StatusRunning, info.Status)
		require.True(t, info.Health.Healthy())
		require.NotNil(t, info.StartedAt)

		require.NoError(t, o.StopAll(ctx))
		require.False(t, r.IsRunning())

		info, _ = o.ServiceInfo("http")
		require.Equal(t, StatusStopped, info.Status)
		require.Equal(t, "http down", info.Health.Message)
	})

	t.Run("dependency order", func(t *testing.T) {
		log := &eventLog{}
		o := NewServiceOrchestrator()
		_, c := newMock(log, "watcher", "scheduler", "http")
		_, a := newMock(log, "http")
		_, b := newMock(log, "scheduler", "http")
		require.NoError(t, o.RegisterService(c))
		require.NoError(t, o.RegisterService(a))
		require.NoError(t, o.RegisterService(b))

		require.NoError(t, o.StartAll(ctx))
		require.NoError(t, o.StopAll(ctx))
		require.Equal(t, []string{
			"start http", "start scheduler", "start watcher",
			"stop watcher", "stop scheduler", "stop http",
		}, log.entries)
	})

	t.Run("circular dependency", func(t *testing.T) {
		o := NewServiceOrchestrator()
		_, a := newMock(nil, "a", "b")
		_, b := newMock(nil, "b", "a")
		require.NoError(t, o.RegisterService(a))
		require.NoError(t, o.RegisterService(b))

		err := o.StartAll(ctx)
		require.Error(t, err)
		require.True(t, errors.HasCategory(err, errors.CategoryDaemon))
	})

	t.Run("start failure stops started services", func(t *testing.T) {
		o := NewServiceOrchestrator()
		a, svcA := newMock(nil, "a")
		b, svcB := newMock(nil, "b")
		b.failStart = true
		c, svcC := newMock(nil, "c", "b")
		require.NoError(t, o.RegisterService(svcA))
		require.NoError(t, o.RegisterService(svcB))
		require.NoError(t, o.RegisterService(svcC))

		err := o.StartAll(ctx)
		require.Error(t, err)
		require.False(t, a.IsRunning())
		require.False(t, c.IsRunning())

		info, _ := o.ServiceInfo("b")
		require.Equal(t, StatusFailed, info.Status)
		require.Equal(t, "mock start failure", info.LastError)
	})

	t.Run("start timeout", func(t *testing.T) {
		o := NewServiceOrchestrator().WithTimeouts(50*time.Millisecond, 50*time.Millisecond)
		slow, svc := newMock(nil, "slow")
		slow.startDelay = time.Second
		require.NoError(t, o.RegisterService(svc))

		require.Error(t, o.StartAll(ctx))
	})

	t.Run("stop failure is reported", func(t *testing.T) {
		o := NewServiceOrchestrator()
		r, svc := newMock(nil, "stuck")
		r.failStop = true
		require.NoError(t, o.RegisterService(svc))
		require.NoError(t, o.StartAll(ctx))

		err := o.StopAll(ctx)
		require.Error(t, err)
		require.True(t, errors.HasSeverity(err, errors.SeverityWarning))
	})

	t.Run("registration validation", func(t *testing.T) {
		o := NewServiceOrchestrator()
		_, empty := newMock(nil, "")
		require.Error(t, o.RegisterService(empty))

		_, svc := newMock(nil, "dup")
		require.NoError(t, o.RegisterService(svc))
		err := o.RegisterService(svc)
		require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	})

	t.Run("service info", func(t *testing.T) {
		o := NewServiceOrchestrator()
		_, b := newMock(nil, "b", "dependency")
		_, a := newMock(nil, "a")
		require.NoError(t, o.RegisterService(b))
		require.NoError(t, o.RegisterService(a))

		info, ok := o.ServiceInfo("b")
		require.True(t, ok)
		require.Equal(t, []string{"dependency"}, info.Dependencies)
		require.Equal(t, StatusNotStarted, info.Status)

		_, ok = o.ServiceInfo("missing")
		require.False(t, ok)

		all := o.AllServiceInfo()
		require.Len(t, all, 2)
		require.Equal(t, "a", all[0].Name)
	})
}
