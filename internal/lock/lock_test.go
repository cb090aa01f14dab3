package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLockAndUnlock(t *testing.T) {
	client := newTestRedis(t)
	locker := NewLocker(client, "test-key", "holder-1")

	assert.NoError(t, locker.Lock(context.Background(), 5*time.Second))
	assert.NoError(t, locker.Unlock(context.Background()))

	// Unlocked, so it can be taken again.
	assert.NoError(t, locker.Lock(context.Background(), 5*time.Second))
}

func TestLockAlreadyHeld(t *testing.T) {
	client := newTestRedis(t)

	first := NewLocker(client, "test-key", "holder-1")
	assert.NoError(t, first.Lock(context.Background(), 5*time.Second))

	second := NewLocker(client, "test-key", "holder-2")
	err := second.Lock(context.Background(), 5*time.Second)
	assert.EqualError(t, err, "lock for key test-key is already held")
}

func TestUnlockOnlyByHolder(t *testing.T) {
	client := newTestRedis(t)

	holder := NewLocker(client, "test-key", "holder-1")
	assert.NoError(t, holder.Lock(context.Background(), 5*time.Second))

	intruder := NewLocker(client, "test-key", "holder-2")
	assert.Error(t, intruder.Unlock(context.Background()))

	// The real holder can still release it.
	assert.NoError(t, holder.Unlock(context.Background()))
}

func TestExtendLock(t *testing.T) {
	client := newTestRedis(t)

	holder := NewLocker(client, "test-key", "holder-1")
	assert.NoError(t, holder.Lock(context.Background(), 5*time.Second))
	assert.NoError(t, holder.ExtendLock(context.Background(), 10*time.Second))

	intruder := NewLocker(client, "test-key", "holder-2")
	assert.Error(t, intruder.ExtendLock(context.Background(), 10*time.Second))
}

func TestWaitLock(t *testing.T) {
	client := newTestRedis(t)

	holder := NewLocker(client, "test-key", "holder-1")
	assert.NoError(t, holder.Lock(context.Background(), 5*time.Second))

	waiter := NewLocker(client, "test-key", "holder-2")
	err := waiter.WaitLock(context.Background(), 5*time.Second, 200*time.Millisecond)
	assert.Error(t, err)

	assert.NoError(t, holder.Unlock(context.Background()))
	assert.NoError(t, waiter.WaitLock(context.Background(), 5*time.Second, 1*time.Second))
}
