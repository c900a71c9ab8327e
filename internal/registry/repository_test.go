package registry

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/mmiyara/naim-hub-go/internal/db"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	dbPair, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbPair.Close() })
	return NewRepository(dbPair)
}

func TestRepository_InsertGetDelete(t *testing.T) {
	repo := setupRepo(t)

	cfg := DeviceConfig{
		ID:              "dev-1",
		Name:            "Living Room",
		Host:            "192.168.1.50",
		Port:            15081,
		StandbySchedule: "0 23 * * *",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.Insert(cfg))

	got, err := repo.Get("dev-1")
	require.NoError(t, err)
	require.Equal(t, cfg.Name, got.Name)
	require.Equal(t, cfg.Host, got.Host)
	require.Equal(t, cfg.Port, got.Port)
	require.Equal(t, cfg.StandbySchedule, got.StandbySchedule)
	require.True(t, cfg.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.Delete("dev-1"))
	_, err = repo.Get("dev-1")
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestRepository_DeleteMissing(t *testing.T) {
	repo := setupRepo(t)
	require.ErrorIs(t, repo.Delete("nope"), ErrDeviceNotFound)
}

func TestRepository_GetAllOrdered(t *testing.T) {
	repo := setupRepo(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"dev-b", "dev-a", "dev-c"} {
		require.NoError(t, repo.Insert(DeviceConfig{
			ID:        id,
			Name:      id,
			Host:      "192.168.1.5" + string(rune('0'+i)),
			Port:      15081,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"dev-b", "dev-a", "dev-c"},
		[]string{all[0].ID, all[1].ID, all[2].ID})
}

func TestRepository_UniqueHostPort(t *testing.T) {
	repo := setupRepo(t)

	cfg := DeviceConfig{ID: "dev-1", Name: "A", Host: "192.168.1.50", Port: 15081, CreatedAt: time.Now()}
	require.NoError(t, repo.Insert(cfg))

	dup := cfg
	dup.ID = "dev-2"
	require.Error(t, repo.Insert(dup))
}
