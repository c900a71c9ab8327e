package history

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/mmiyara/naim-hub-go/internal/db"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

func insertDevice(t *testing.T, pair *db.DBPair, id string) {
	t.Helper()
	_, err := pair.Writer().Exec(
		`INSERT INTO devices (device_id, name, host, port, standby_schedule, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, ?)`,
		id, id, "192.168.1.50", 15081, time.Now().UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
}

func setupServiceWithDevice(t *testing.T, deviceID string) (*Service, *Repository) {
	t.Helper()
	dbPair, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbPair.Close() })
	insertDevice(t, dbPair, deviceID)

	repo := NewRepository(dbPair)
	return NewService(repo, DefaultRetentionDays, nil), repo
}

func TestService_RecordDiffsChangedFields(t *testing.T) {
	svc, _ := setupServiceWithDevice(t, "dev-1")

	volume40 := 40
	volume55 := 55
	prev := state.DeviceState{
		Power: state.PowerOn, Playback: state.PlaybackPlaying,
		Source: "spotify", Volume: &volume40, Repeat: state.RepeatOff, Reachable: true,
	}
	next := prev.Clone()
	next.Playback = state.PlaybackPaused
	next.Volume = &volume55

	svc.Record("dev-1", prev, next, time.Now())

	transitions, total, hasMore, err := svc.Query(QueryFilters{DeviceID: "dev-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.False(t, hasMore)

	fields := map[string][2]string{}
	for _, tr := range transitions {
		fields[tr.Field] = [2]string{tr.OldValue, tr.NewValue}
	}
	require.Equal(t, [2]string{"playing", "paused"}, fields["playback"])
	require.Equal(t, [2]string{"40", "55"}, fields["volume"])
}

func TestService_RecordNoChangesWritesNothing(t *testing.T) {
	svc, _ := setupServiceWithDevice(t, "dev-1")

	st := state.DeviceState{Power: state.PowerOn, Playback: state.PlaybackStopped, Reachable: true}
	svc.Record("dev-1", st, st.Clone(), time.Now())

	_, total, _, err := svc.Query(QueryFilters{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestService_RecordReachabilityFlip(t *testing.T) {
	svc, _ := setupServiceWithDevice(t, "dev-1")

	prev := state.DeviceState{Power: state.PowerOn, Playback: state.PlaybackPlaying, Reachable: true}
	next := prev.Clone()
	next.Reachable = false

	svc.Record("dev-1", prev, next, time.Now())

	transitions, _, _, err := svc.Query(QueryFilters{Field: "reachable"})
	require.NoError(t, err)
	require.Len(t, transitions, 1)
	require.Equal(t, "true", transitions[0].OldValue)
	require.Equal(t, "false", transitions[0].NewValue)
}

func TestService_QueryPagination(t *testing.T) {
	svc, repo := setupServiceWithDevice(t, "dev-1")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := repo.Insert("dev-1", "volume", "0", "1", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	page, total, hasMore, err := svc.Query(QueryFilters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 5, total)
	require.True(t, hasMore)

	// Newest first.
	require.True(t, page[0].OccurredAt.After(page[1].OccurredAt))

	last, _, hasMore, err := svc.Query(QueryFilters{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.False(t, hasMore)
}

func TestRepository_PruneDropsOnlyOldRows(t *testing.T) {
	svc, repo := setupServiceWithDevice(t, "dev-1")

	_, err := repo.Insert("dev-1", "power", "on", "standby", time.Now().UTC().AddDate(0, 0, -120))
	require.NoError(t, err)
	_, err = repo.Insert("dev-1", "power", "standby", "on", time.Now().UTC())
	require.NoError(t, err)

	pruned, err := repo.Prune(90)
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)

	_, total, _, err := svc.Query(QueryFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestRepository_DeviceCascadeDelete(t *testing.T) {
	dbPair, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbPair.Close() })
	insertDevice(t, dbPair, "dev-1")

	repo := NewRepository(dbPair)
	_, err = repo.Insert("dev-1", "power", "on", "standby", time.Now())
	require.NoError(t, err)

	_, err = dbPair.Writer().Exec(`DELETE FROM devices WHERE device_id = 'dev-1'`)
	require.NoError(t, err)

	_, total, err := repo.Query(QueryFilters{DeviceID: "dev-1", Limit: 10})
	require.NoError(t, err)
	require.Zero(t, total)
}
