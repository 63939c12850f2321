package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	days  []int
	err   error
	calls chan struct{}
}

func newRecordingEnqueuer() *recordingEnqueuer {
	return &recordingEnqueuer{calls: make(chan struct{}, 10)}
}

func (r *recordingEnqueuer) EnqueueMaintenance(ctx context.Context, days int) ([]string, error) {
	r.mu.Lock()
	r.days = append(r.days, days)
	r.mu.Unlock()
	r.calls <- struct{}{}
	if r.err != nil {
		return nil, r.err
	}
	return []string{"a", "b"}, nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("not a schedule"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(newRecordingEnqueuer(), "0 3 * * *", 30, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())

	// Stopping twice is a no-op
	s.Stop()
}

func TestMaintenanceScheduler_Disabled(t *testing.T) {
	s := NewMaintenanceScheduler(newRecordingEnqueuer(), "", 30, zerolog.Nop())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	s := NewMaintenanceScheduler(newRecordingEnqueuer(), "every day", 30, zerolog.Nop())

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestMaintenanceScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewMaintenanceScheduler(newRecordingEnqueuer(), "0 3 * * *", 30, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	enqueuer := newRecordingEnqueuer()
	s := NewMaintenanceScheduler(enqueuer, "0 3 * * *", 14, zerolog.Nop())

	ids, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, []int{14}, enqueuer.days)
}

func TestMaintenanceScheduler_RunMaintenanceLogsFailure(t *testing.T) {
	enqueuer := newRecordingEnqueuer()
	enqueuer.err = errors.New("queue closed")
	s := NewMaintenanceScheduler(enqueuer, "0 3 * * *", 30, zerolog.Nop())

	s.runMaintenance()

	select {
	case <-enqueuer.calls:
	default:
		t.Fatal("expected enqueue attempt")
	}
}
