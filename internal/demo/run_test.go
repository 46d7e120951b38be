package demo

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

func TestRunPassesAgainstLocalKernel(t *testing.T) {
	m := kernel.NewManager(zap.NewNop())
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), NewLocal(m), &out))

	report := out.String()
	assert.Contains(t, report, "Aurora Kernel Version: 0.1.0")
	assert.Contains(t, report, "PASS: Created thread 1 with ID 1")
	assert.Contains(t, report, "PASS: Created thread 2 with ID 2")
	assert.Contains(t, report, "PASS: Thread count is correct: 2")
	assert.Contains(t, report, "Output: Aurora Kernel Response: 'Hello Aurora!'")
	assert.Contains(t, report, "From: Thread 0")
	assert.Contains(t, report, "Message: Demo message from kernel")
	assert.Contains(t, report, "=== All Tests Passed! ===")
	assert.NotContains(t, report, "FAIL")

	assert.False(t, m.Initialized())
	assert.Zero(t, m.ActiveThreadCount())
}

func TestRunFailsWhenAlreadyInitialized(t *testing.T) {
	m := kernel.NewManager(zap.NewNop())
	require.NoError(t, m.Init())
	var out bytes.Buffer

	err := Run(context.Background(), NewLocal(m), &out)
	require.ErrorIs(t, err, kernel.ErrAlreadyInitialized)
	assert.Contains(t, out.String(), "FAIL: Kernel initialization failed with error -3")
	assert.NotContains(t, out.String(), "All Tests Passed")
}

func TestRunFailsOnUnexpectedThreadCount(t *testing.T) {
	m := kernel.NewManager(zap.NewNop())
	k := &extraThread{Local: NewLocal(m)}
	var out bytes.Buffer

	err := Run(context.Background(), k, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "FAIL: Expected 2 threads, got 3")
}

func TestLocalHonorsCanceledContext(t *testing.T) {
	m := kernel.NewManager(zap.NewNop())
	l := NewLocal(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Init(ctx), context.Canceled)
	assert.False(t, m.Initialized())
}

// extraThread creates a stray thread right after Init.
type extraThread struct {
	*Local
}

func (e *extraThread) Init(ctx context.Context) error {
	if err := e.Local.Init(ctx); err != nil {
		return err
	}
	_, err := e.Local.CreateThread(ctx, "stray")
	return err
}
