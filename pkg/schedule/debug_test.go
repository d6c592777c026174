package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EnableDisable(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	ctx := context.Background()

	var fired int64
	assert.False(t, r.Enabled(42))

	r.Enable(ctx, 42, func(context.Context) { atomic.AddInt64(&fired, 1) })
	assert.True(t, r.Enabled(42))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&fired) >= 2
	}, time.Second, 5*time.Millisecond)

	assert.True(t, r.Disable(42))
	assert.False(t, r.Enabled(42))

	// Counter settles after disable.
	time.Sleep(30 * time.Millisecond)
	settled := atomic.LoadInt64(&fired)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt64(&fired))
}

func TestRegistry_DisableWithoutEnable(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	assert.False(t, r.Disable(7))
}

func TestRegistry_ReenableCancelsPreviousTimer(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	ctx := context.Background()

	var first, second int64
	r.Enable(ctx, 42, func(context.Context) { atomic.AddInt64(&first, 1) })
	r.Enable(ctx, 42, func(context.Context) { atomic.AddInt64(&second, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&second) >= 2
	}, time.Second, 5*time.Millisecond)

	// The first timer is cancelled; its counter no longer moves.
	frozen := atomic.LoadInt64(&first)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, atomic.LoadInt64(&first))
	assert.True(t, r.Enabled(42))

	r.Disable(42)
}

func TestRegistry_PerChatIsolation(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	ctx := context.Background()

	r.Enable(ctx, 1, func(context.Context) {})
	r.Enable(ctx, 2, func(context.Context) {})

	assert.True(t, r.Disable(1))
	assert.False(t, r.Enabled(1))
	assert.True(t, r.Enabled(2))

	r.Disable(2)
}
