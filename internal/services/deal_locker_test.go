package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDealLockerTimesOut(t *testing.T) {
	locker := NewLocalDealLocker()

	unlock, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 1)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
	assert.Empty(t, locker.locks)
}

func TestLocalDealLockerIsPerDeal(t *testing.T) {
	locker := NewLocalDealLocker()

	unlockA, err := locker.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, 2)
	require.NoError(t, err)
	unlockB()
}

func TestLocalDealLockerHandsOver(t *testing.T) {
	locker := NewLocalDealLocker()

	unlock, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		next, err := locker.Lock(context.Background(), 7)
		if err == nil {
			next()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestDealLockKey(t *testing.T) {
	assert.Equal(t, "deal:lock:42", dealLockKey(42))
}
