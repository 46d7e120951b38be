package kernel

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
)

const (
	demoReplyID      = 1
	demoReplyPayload = "Demo message from kernel"
)

// Manager owns the kernel lifecycle, the thread registry and the IPC stub.
// All methods are safe for concurrent use; each one is atomic with respect
// to every other.
type Manager struct {
	mu          sync.RWMutex
	initialized bool      // Protected by mu
	startTime   time.Time // Protected by mu
	nextID      ThreadID  // Protected by mu
	threads     []*Thread // Protected by mu, creation order

	// seq numbers events inside the critical section that produced them.
	// Publication happens after the lock is released, so delivery order can
	// differ from Seq order.
	seq atomic.Uint64

	now       func() time.Time
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	publisher Publisher
}

// NewManager creates an uninitialized kernel.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		nextID:    1,
		now:       time.Now,
		logger:    logger.Named("kernel"),
		publisher: nopPublisher{},
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithPublisher routes kernel events to p.
func (m *Manager) WithPublisher(p Publisher) *Manager {
	if p == nil {
		p = nopPublisher{}
	}
	m.publisher = p
	return m
}

// WithClock replaces the time source. now must carry a monotonic reading
// (time.Now does) for uptime to be immune to wall clock steps.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Init moves the kernel from Uninitialized to Initialized and starts the
// uptime clock.
func (m *Manager) Init() (err error) {
	defer m.track("init", time.Now(), &err)

	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return &Error{Code: CodeAlreadyInitialized, Op: "init"}
	}
	m.initialized = true
	m.startTime = m.now()
	event := m.eventLocked(EventInitialized)
	m.mu.Unlock()

	m.logger.Info("Initialized L4 microkernel stub", zap.String("version", VersionString()))
	if m.metrics != nil {
		m.metrics.SetKernelInitialized(true)
		m.metrics.SetThreadsActive(0)
	}
	m.emit(event)
	return nil
}

// Shutdown clears the registry and moves the kernel back to Uninitialized.
// The id counter is not reset.
func (m *Manager) Shutdown() (err error) {
	defer m.track("shutdown", time.Now(), &err)

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return notInitialized("shutdown")
	}
	cleared := len(m.threads)
	event := m.eventLocked(EventShutdown)
	event.Cleared = cleared
	m.threads = nil
	m.initialized = false
	m.startTime = time.Time{}
	m.mu.Unlock()

	m.logger.Info("Shutdown complete", zap.Int("threads_cleared", cleared))
	if m.metrics != nil {
		m.metrics.SetThreadsActive(0)
		m.metrics.SetKernelInitialized(false)
	}
	m.emit(event)
	return nil
}

// Initialized reports the lifecycle state. Valid in any state.
func (m *Manager) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Status returns a snapshot of an initialized kernel.
func (m *Manager) Status() (st Status, err error) {
	defer m.track("status", time.Now(), &err)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return Status{}, notInitialized("status")
	}
	return Status{
		Initialized:   true,
		Version:       CurrentVersion(),
		UptimeMs:      m.uptimeLocked(),
		ActiveThreads: uint32(len(m.threads)),
	}, nil
}

// CreateThread registers a thread record and returns its id. An empty name
// is recorded as DefaultThreadName; long names are truncated.
func (m *Manager) CreateThread(name string) (id ThreadID, err error) {
	defer m.track("create_thread", time.Now(), &err)

	bounded := NewName(name)

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return 0, notInitialized("create_thread")
	}
	if m.nextID == 0 {
		// The counter wrapped; handing out 1 again would reuse an id.
		m.mu.Unlock()
		return 0, NewError("create_thread", CodeUnknown, "thread id space exhausted")
	}
	id = m.nextID
	m.nextID++
	m.threads = append(m.threads, &Thread{
		ID:        id,
		Name:      bounded,
		Active:    true,
		CreatedAt: m.now(),
	})
	count := len(m.threads)
	event := m.eventLocked(EventThreadCreated)
	m.mu.Unlock()
	event.ThreadID = id
	event.Name = bounded

	m.logger.Info("Created thread", zap.Uint32("thread_id", uint32(id)), zap.String("name", bounded.String()))
	if m.metrics != nil {
		m.metrics.IncThreadsCreated()
		m.metrics.SetThreadsActive(count)
	}
	m.emit(event)
	return id, nil
}

// DestroyThread removes the record with the given id. Unknown or already
// destroyed ids fail with CodeInvalidParam and leave the registry alone.
func (m *Manager) DestroyThread(id ThreadID) (err error) {
	defer m.track("destroy_thread", time.Now(), &err)

	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return notInitialized("destroy_thread")
	}
	idx := slices.IndexFunc(m.threads, func(t *Thread) bool { return t.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		return NewError("destroy_thread", CodeInvalidParam, "thread %d not found", id)
	}
	m.threads = slices.Delete(m.threads, idx, idx+1)
	count := len(m.threads)
	event := m.eventLocked(EventThreadDestroyed)
	m.mu.Unlock()
	event.ThreadID = id

	m.logger.Info("Destroyed thread", zap.Uint32("thread_id", uint32(id)))
	if m.metrics != nil {
		m.metrics.SetThreadsActive(count)
	}
	m.emit(event)
	return nil
}

// ActiveThreadCount returns the registry size. Valid in any state; it is 0
// whenever the kernel is uninitialized.
func (m *Manager) ActiveThreadCount() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint32(len(m.threads))
}

// Threads returns a copy of the registry in creation order.
func (m *Manager) Threads() (threads []Thread, err error) {
	defer m.track("list_threads", time.Now(), &err)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return nil, notInitialized("list_threads")
	}
	threads = make([]Thread, 0, len(m.threads))
	for _, t := range m.threads {
		threads = append(threads, *t)
	}
	return threads, nil
}

// Send records msg as sent to target. Nothing is queued or delivered and
// target is not checked against the registry.
func (m *Manager) Send(target ThreadID, msg *Message) (err error) {
	defer m.track("send", time.Now(), &err)

	if msg == nil {
		return NewError("send", CodeInvalidParam, "message is required")
	}

	m.mu.RLock()
	if !m.initialized {
		m.mu.RUnlock()
		return notInitialized("send")
	}
	event := m.eventLocked(EventMessageSent)
	m.mu.RUnlock()
	event.Target = target
	event.MsgID = msg.ID
	event.Size = msg.Size()

	m.logger.Info("IPC send",
		zap.Uint32("target", uint32(target)),
		zap.Uint32("msg_id", msg.ID),
		zap.Int("size", msg.Size()),
	)
	if m.metrics != nil {
		m.metrics.RecordIPCMessage("send")
	}
	m.emit(event)
	return nil
}

// Receive returns a synthesized demonstration message from sender 0. It
// never observes anything passed to Send.
func (m *Manager) Receive() (sender ThreadID, msg Message, err error) {
	defer m.track("receive", time.Now(), &err)

	m.mu.RLock()
	initialized := m.initialized
	uptime := m.uptimeLocked()
	m.mu.RUnlock()

	if !initialized {
		return 0, Message{}, notInitialized("receive")
	}

	if m.metrics != nil {
		m.metrics.RecordIPCMessage("receive")
	}
	return 0, NewMessage(demoReplyID, uptime, []byte(demoReplyPayload)), nil
}

// DemoCall echoes input together with uptime and thread count. The reply is
// cut to capacity-1 bytes, the room a NUL-terminated buffer of capacity
// bytes would have.
func (m *Manager) DemoCall(input string, capacity int) (out string, err error) {
	defer m.track("demo_call", time.Now(), &err)

	if capacity <= 0 {
		return "", NewError("demo_call", CodeInvalidParam, "output capacity must be positive, got %d", capacity)
	}

	m.mu.RLock()
	initialized := m.initialized
	uptime := m.uptimeLocked()
	count := len(m.threads)
	m.mu.RUnlock()

	if !initialized {
		return "", notInitialized("demo_call")
	}

	out = fmt.Sprintf("Aurora Kernel Response: '%s' [uptime: %d ms, threads: %d]", input, uptime, count)
	return truncateUTF8(out, capacity-1), nil
}

// Uptime is the time since the last successful Init, or 0 when
// uninitialized.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.uptimeLocked()) * time.Millisecond
}

// uptimeLocked must be called with mu held.
func (m *Manager) uptimeLocked() uint64 {
	if !m.initialized {
		return 0
	}
	elapsed := m.now().Sub(m.startTime).Milliseconds()
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed)
}

func (m *Manager) track(op string, start time.Time, err *error) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordKernelOp(op, CodeOf(*err).Label(), time.Since(start))
}

// eventLocked stamps an event with its sequence number, time and uptime.
// Callers hold mu (read or write).
func (m *Manager) eventLocked(t EventType) Event {
	return Event{
		Type:      t,
		Seq:       m.seq.Add(1),
		UptimeMs:  m.uptimeLocked(),
		Timestamp: m.now(),
	}
}

func (m *Manager) emit(event Event) {
	if err := m.publisher.Publish(event); err != nil {
		m.logger.Warn("Failed to publish kernel event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
