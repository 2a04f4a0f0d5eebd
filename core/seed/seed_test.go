package seed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Run(t *testing.T) {
	var calls int32
	s := NewSeeder(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	fired, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, s.Fired())

	fired, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSeeder_RunConcurrently(t *testing.T) {
	var calls int32
	s := NewSeeder(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Run(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSeeder_RunFailureIsNotRetried(t *testing.T) {
	var calls int32
	s := NewSeeder(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db down")
	})

	fired, err := s.Run(context.Background())
	assert.True(t, fired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	fired, err = s.Run(context.Background())
	assert.False(t, fired)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
