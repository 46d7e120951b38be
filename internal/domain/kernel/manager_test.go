package kernel

import (
	"errors"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return NewManager(zap.NewNop()).WithClock(clock.Now), clock
}

func TestGatedOperationsBeforeInit(t *testing.T) {
	m, _ := newTestManager(t)

	ops := map[string]func() error{
		"shutdown": m.Shutdown,
		"status": func() error {
			_, err := m.Status()
			return err
		},
		"create_thread": func() error {
			_, err := m.CreateThread("a")
			return err
		},
		"destroy_thread": func() error {
			return m.DestroyThread(1)
		},
		"list_threads": func() error {
			_, err := m.Threads()
			return err
		},
		"send": func() error {
			msg := NewMessage(1, 0, []byte("x"))
			return m.Send(1, &msg)
		},
		"receive": func() error {
			_, _, err := m.Receive()
			return err
		},
		"demo_call": func() error {
			_, err := m.DemoCall("X", 64)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.Equal(t, CodeNotInitialized, CodeOf(err))
			assert.False(t, m.Initialized())
			assert.Equal(t, uint32(0), m.ActiveThreadCount())
		})
	}

	// A thread created before init must not have consumed id 1.
	require.NoError(t, m.Init())
	id, err := m.CreateThread("first")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(1), id)
}

func TestGatedOperationsAfterShutdown(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())
	_, err := m.CreateThread("a")
	require.NoError(t, err)
	require.NoError(t, m.Shutdown())

	_, err = m.Status()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = m.CreateThread("b")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, m.Shutdown(), ErrNotInitialized)
	assert.Equal(t, uint32(0), m.ActiveThreadCount())
}

func TestInitTwiceKeepsState(t *testing.T) {
	m, clock := newTestManager(t)
	require.NoError(t, m.Init())
	_, err := m.CreateThread("a")
	require.NoError(t, err)

	clock.Advance(1500 * time.Millisecond)

	err = m.Init()
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyInitialized, CodeOf(err))

	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), status.UptimeMs, "second init must not reset the start time")
	assert.Equal(t, uint32(1), status.ActiveThreads, "second init must not clear the registry")
}

func TestThreadIDsNeverReused(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())

	for want := ThreadID(1); want <= 5; want++ {
		id, err := m.CreateThread("t")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	for _, id := range []ThreadID{4, 1, 2} {
		require.NoError(t, m.DestroyThread(id))
	}

	for want := ThreadID(6); want <= 8; want++ {
		id, err := m.CreateThread("t")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	threads, err := m.Threads()
	require.NoError(t, err)
	ids := make([]ThreadID, 0, len(threads))
	for _, th := range threads {
		ids = append(ids, th.ID)
	}
	assert.Equal(t, []ThreadID{3, 5, 6, 7, 8}, ids, "registry keeps creation order")
}

func TestThreadIDsSurviveShutdown(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())
	_, _ = m.CreateThread("a")
	_, _ = m.CreateThread("b")
	require.NoError(t, m.Shutdown())
	require.NoError(t, m.Init())

	id, err := m.CreateThread("c")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(3), id)
}

func TestThreadIDExhaustion(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())
	m.nextID = math.MaxUint32

	id, err := m.CreateThread("last")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(math.MaxUint32), id)

	_, err = m.CreateThread("overflow")
	assert.Equal(t, CodeUnknown, CodeOf(err))
	assert.Equal(t, uint32(1), m.ActiveThreadCount())
}

func TestActiveThreadCountTracksCreatesAndDestroys(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())

	var ids []ThreadID
	for i := 0; i < 10; i++ {
		id, err := m.CreateThread("")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	destroyed := 0
	for i, id := range ids {
		if i%3 == 0 {
			require.NoError(t, m.DestroyThread(id))
			destroyed++
		}
	}
	assert.Equal(t, uint32(len(ids)-destroyed), m.ActiveThreadCount())

	require.NoError(t, m.Shutdown())
	assert.Equal(t, uint32(0), m.ActiveThreadCount())
}

func TestDestroyUnknownThread(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())
	id, err := m.CreateThread("a")
	require.NoError(t, err)

	err = m.DestroyThread(99)
	assert.Equal(t, CodeInvalidParam, CodeOf(err))
	assert.Equal(t, uint32(1), m.ActiveThreadCount())

	require.NoError(t, m.DestroyThread(id))
	err = m.DestroyThread(id)
	assert.Equal(t, CodeInvalidParam, CodeOf(err))
	assert.Equal(t, uint32(0), m.ActiveThreadCount())
}

func TestLifecycleScenario(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Init())

	a, err := m.CreateThread("a")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(1), a)

	b, err := m.CreateThread("b")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(2), b)

	require.NoError(t, m.DestroyThread(1))
	assert.Equal(t, uint32(1), m.ActiveThreadCount())

	assert.Equal(t, CodeInvalidParam, CodeOf(m.DestroyThread(1)))

	status, err := m.Status()
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.Equal(t, uint32(1), status.ActiveThreads)
	assert.Equal(t, "0.1.0", status.Version.String())

	require.NoError(t, m.Shutdown())
	assert.Equal(t, uint32(0), m.ActiveThreadCount())
}

func TestThreadNames(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())

	_, err := m.CreateThread("")
	require.NoError(t, err)
	_, err = m.CreateThread(strings.Repeat("n", 100))
	require.NoError(t, err)

	threads, err := m.Threads()
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, Name(DefaultThreadName), threads[0].Name)
	assert.Len(t, threads[1].Name, MaxNameLen)
	assert.True(t, threads[0].Active)
}

func TestThreadsReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Init())
	_, _ = m.CreateThread("orig")

	threads, err := m.Threads()
	require.NoError(t, err)
	threads[0].Name = "changed"

	again, err := m.Threads()
	require.NoError(t, err)
	assert.Equal(t, Name("orig"), again[0].Name)
}

func TestStatusUptime(t *testing.T) {
	m, clock := newTestManager(t)
	require.NoError(t, m.Init())

	clock.Advance(250 * time.Millisecond)
	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), status.UptimeMs)
	assert.Equal(t, 250*time.Millisecond, m.Uptime())

	// Uptime restarts on the next init.
	require.NoError(t, m.Shutdown())
	assert.Zero(t, m.Uptime())
	clock.Advance(time.Second)
	require.NoError(t, m.Init())
	status, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), status.UptimeMs)
}

func TestDemoCall(t *testing.T) {
	t.Run("zero capacity is invalid in every state", func(t *testing.T) {
		m, _ := newTestManager(t)
		_, err := m.DemoCall("X", 0)
		assert.Equal(t, CodeInvalidParam, CodeOf(err))

		require.NoError(t, m.Init())
		_, err = m.DemoCall("X", 0)
		assert.Equal(t, CodeInvalidParam, CodeOf(err))

		_, err = m.DemoCall("X", -5)
		assert.Equal(t, CodeInvalidParam, CodeOf(err))
	})

	t.Run("formats input uptime and threads", func(t *testing.T) {
		m, clock := newTestManager(t)
		require.NoError(t, m.Init())
		_, _ = m.CreateThread("a")
		clock.Advance(42 * time.Millisecond)

		out, err := m.DemoCall("Hello Aurora!", 256)
		require.NoError(t, err)
		assert.Equal(t, "Aurora Kernel Response: 'Hello Aurora!' [uptime: 42 ms, threads: 1]", out)
	})

	t.Run("truncates to capacity minus terminator", func(t *testing.T) {
		m, _ := newTestManager(t)
		require.NoError(t, m.Init())

		for _, capacity := range []int{1, 2, 10, 30} {
			out, err := m.DemoCall("X", capacity)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(out), capacity-1)
		}

		out, err := m.DemoCall("X", 30)
		require.NoError(t, err)
		assert.Contains(t, out, "X")
	})
}

func TestVersionStringIndependentOfLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	before := VersionString()
	require.NoError(t, m.Init())
	during := VersionString()
	require.NoError(t, m.Shutdown())
	after := VersionString()

	assert.Equal(t, "0.1.0", before)
	assert.Equal(t, before, during)
	assert.Equal(t, before, after)
}

func TestSendAndReceive(t *testing.T) {
	t.Run("nil message is invalid even when uninitialized", func(t *testing.T) {
		m, _ := newTestManager(t)
		assert.Equal(t, CodeInvalidParam, CodeOf(m.Send(1, nil)))
	})

	t.Run("send accepts any target", func(t *testing.T) {
		m, _ := newTestManager(t)
		require.NoError(t, m.Init())
		msg := NewMessage(42, 1234567890, []byte("Test message"))
		assert.NoError(t, m.Send(777, &msg))
	})

	t.Run("receive synthesizes a demo reply", func(t *testing.T) {
		m, clock := newTestManager(t)
		require.NoError(t, m.Init())

		msg := NewMessage(42, 0, []byte("never delivered"))
		require.NoError(t, m.Send(1, &msg))
		clock.Advance(9 * time.Millisecond)

		sender, got, err := m.Receive()
		require.NoError(t, err)
		assert.Equal(t, ThreadID(0), sender)
		assert.Equal(t, uint32(1), got.ID)
		assert.Equal(t, uint64(9), got.Timestamp)
		assert.Equal(t, "Demo message from kernel", got.Payload.String())
		assert.Equal(t, len("Demo message from kernel"), got.Size())
	})
}

func TestConcurrentCreateDestroy(t *testing.T) {
	m := NewManager(zap.NewNop())
	require.NoError(t, m.Init())

	const workers, perWorker = 16, 100
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[ThreadID]struct{})
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := m.CreateThread("worker")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				_, dup := ids[id]
				ids[id] = struct{}{}
				mu.Unlock()
				assert.False(t, dup, "duplicate id %d", id)

				if i%2 == 0 {
					assert.NoError(t, m.DestroyThread(id))
				}
				_, _ = m.Status()
				_ = m.ActiveThreadCount()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, workers*perWorker)
	assert.Equal(t, uint32(workers*perWorker/2), m.ActiveThreadCount())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewManager(zap.New(core))

	require.NoError(t, m.Init())
	_, _ = m.CreateThread("logged")
	msg := NewMessage(42, 0, []byte("Test message"))
	require.NoError(t, m.Send(5, &msg))
	require.NoError(t, m.Shutdown())

	initLogs := logs.FilterMessage("Initialized L4 microkernel stub").All()
	require.Len(t, initLogs, 1)
	assert.Equal(t, "0.1.0", initLogs[0].ContextMap()["version"])
	assert.Equal(t, "kernel", initLogs[0].LoggerName)

	sendLogs := logs.FilterMessage("IPC send").All()
	require.Len(t, sendLogs, 1)
	assert.EqualValues(t, 5, sendLogs[0].ContextMap()["target"])
	assert.EqualValues(t, 42, sendLogs[0].ContextMap()["msg_id"])
	assert.EqualValues(t, 12, sendLogs[0].ContextMap()["size"])

	assert.Equal(t, 1, logs.FilterMessage("Created thread").Len())
	assert.Equal(t, 1, logs.FilterMessage("Shutdown complete").Len())
}

func TestMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := NewManager(zap.NewNop()).WithMetrics(metrics)

	_, _ = m.Status()
	require.NoError(t, m.Init())
	id, _ := m.CreateThread("a")
	_, _ = m.CreateThread("b")
	require.NoError(t, m.DestroyThread(id))

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ThreadsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ThreadsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.KernelInitialized))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.KernelOps.WithLabelValues("status", "not_initialized")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.KernelOps.WithLabelValues("create_thread", "ok")))

	require.NoError(t, m.Shutdown())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ThreadsActive))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.KernelInitialized))
}

func TestPublisherReceivesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(zap.NewNop()).WithPublisher(pub)

	require.NoError(t, m.Init())
	id, _ := m.CreateThread("evented")
	msg := NewMessage(7, 0, []byte("hi"))
	require.NoError(t, m.Send(id, &msg))
	require.NoError(t, m.DestroyThread(id))
	require.NoError(t, m.Shutdown())

	assert.Equal(t, []EventType{
		EventInitialized,
		EventThreadCreated,
		EventMessageSent,
		EventThreadDestroyed,
		EventShutdown,
	}, pub.types())

	// Failed operations publish nothing.
	assert.Error(t, m.Shutdown())
	assert.Len(t, pub.types(), 5)
}

func TestPublisherErrorDoesNotFailOperation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := NewManager(zap.NewNop()).WithPublisher(pub)

	require.NoError(t, m.Init())
	id, err := m.CreateThread("a")
	require.NoError(t, err)
	assert.Equal(t, ThreadID(1), id)
}

func TestEventsCarryClockAndSequence(t *testing.T) {
	pub := &recordingPublisher{}
	m, clock := newTestManager(t)
	m.WithPublisher(pub)

	require.NoError(t, m.Init())
	clock.Advance(1500 * time.Millisecond)
	id, err := m.CreateThread("clocked")
	require.NoError(t, err)
	msg := NewMessage(1, 0, nil)
	require.NoError(t, m.Send(id, &msg))
	require.NoError(t, m.Shutdown())

	require.Len(t, pub.events, 4)
	for i, e := range pub.events {
		assert.Equal(t, uint64(i+1), e.Seq, e.Type)
		assert.Equal(t, clock.Now(), e.Timestamp, e.Type)
	}
	assert.Equal(t, uint64(0), pub.events[0].UptimeMs)
	assert.Equal(t, uint64(1500), pub.events[1].UptimeMs)
	assert.Equal(t, uint64(1500), pub.events[3].UptimeMs)
	assert.Equal(t, 1, pub.events[3].Cleared)
}

func TestEventSequenceFollowsCommitOrder(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewManager(zap.NewNop()).WithPublisher(pub)
	require.NoError(t, m.Init())

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateThread("racer")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	created := slices.DeleteFunc(slices.Clone(pub.events), func(e Event) bool {
		return e.Type != EventThreadCreated
	})
	require.Len(t, created, workers)
	slices.SortFunc(created, func(a, b Event) int {
		return int(a.Seq) - int(b.Seq)
	})
	// Ids are allocated under the same lock as Seq, so ordering by Seq
	// recovers allocation order even when delivery interleaved.
	for i, e := range created {
		assert.Equal(t, ThreadID(i+1), e.ThreadID)
		assert.Equal(t, uint64(i+2), e.Seq)
	}
}
