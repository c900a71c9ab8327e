package standby

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScheduler_Validate(t *testing.T) {
	s := NewScheduler(nil)

	require.NoError(t, s.Validate("0 23 * * *"))
	require.NoError(t, s.Validate("30 22 * * 1-5"))
	require.Error(t, s.Validate("not a cron line"))
	require.Error(t, s.Validate("61 25 * * *"))
}

func TestScheduler_SetReplaceRemove(t *testing.T) {
	s := NewScheduler(nil)

	require.NoError(t, s.Set("dev-1", "0 23 * * *", func() {}))
	require.Len(t, s.jobs, 1)
	first := s.jobs["dev-1"]

	// Setting again replaces the existing job instead of stacking a second.
	require.NoError(t, s.Set("dev-1", "0 22 * * *", func() {}))
	require.Len(t, s.jobs, 1)
	require.NotEqual(t, first, s.jobs["dev-1"])

	s.Remove("dev-1")
	require.Empty(t, s.jobs)

	// Removing an unknown device is a no-op.
	s.Remove("dev-9")
}

func TestScheduler_SetInvalidExpression(t *testing.T) {
	s := NewScheduler(nil)
	require.Error(t, s.Set("dev-1", "banana", func() {}))
	require.Empty(t, s.jobs)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Set("dev-1", "0 23 * * *", func() {}))
	s.Start()
	s.Stop()
}
