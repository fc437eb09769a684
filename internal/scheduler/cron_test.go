package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/accolade/internal/logger"
)

type fakeRunner struct {
	err      error
	calls    int
	deadline bool
}

func (f *fakeRunner) RunDaily(ctx context.Context) (Report, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return Report{RunID: "run-1", Date: day(2024, 3, 10)}, f.err
}

func TestNewCronRejectsBadSchedule(t *testing.T) {
	_, err := NewCron("every day at six", time.UTC, &fakeRunner{}, time.Minute, nil)
	assert.Error(t, err)
}

func TestCronFireAppliesTimeout(t *testing.T) {
	runner := &fakeRunner{}
	c, err := NewCron("0 6 * * *", time.UTC, runner, time.Minute, nil)
	require.NoError(t, err)

	c.fire()
	assert.Equal(t, 1, runner.calls)
	assert.True(t, runner.deadline)
}

func TestCronFireLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	runner := &fakeRunner{err: ErrRunInProgress}
	c, err := NewCron("0 6 * * *", time.UTC, runner, 0, logger.NewWithWriter(&buf))
	require.NoError(t, err)

	c.fire()
	assert.False(t, runner.deadline)
	assert.Contains(t, buf.String(), "another run holds the lock")

	buf.Reset()
	runner.err = errors.New("upstream down")
	c.fire()
	assert.Contains(t, buf.String(), "scheduled ingestion failed")
	assert.Contains(t, buf.String(), "upstream down")
}

func TestCronNextRespectsLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	c, err := NewCron("0 6 * * *", est, &fakeRunner{}, time.Minute, nil)
	require.NoError(t, err)

	c.Start()
	defer c.Stop()

	next := c.Next().In(est)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 1, "next", "soon", "dangling"})
	assert.Equal(t, map[string]interface{}{"entry": 1, "next": "soon"}, fields)
}
