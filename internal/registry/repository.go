package registry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mmiyara/naim-hub-go/internal/db"
)

// Repository persists device configurations.
type Repository struct {
	db *db.DBPair
}

func NewRepository(pair *db.DBPair) *Repository {
	return &Repository{db: pair}
}

func (r *Repository) Insert(cfg DeviceConfig) error {
	now := cfg.CreatedAt.UTC().Format(time.RFC3339)
	_, err := r.db.Writer().Exec(
		`INSERT INTO devices (device_id, name, host, port, standby_schedule, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.Name, cfg.Host, cfg.Port, cfg.StandbySchedule, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

func (r *Repository) Delete(deviceID string) error {
	res, err := r.db.Writer().Exec(`DELETE FROM devices WHERE device_id = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

func (r *Repository) Get(deviceID string) (DeviceConfig, error) {
	row := r.db.Reader().QueryRow(
		`SELECT device_id, name, host, port, standby_schedule, created_at
		 FROM devices WHERE device_id = ?`, deviceID)
	cfg, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return DeviceConfig{}, ErrDeviceNotFound
	}
	return cfg, err
}

func (r *Repository) GetAll() ([]DeviceConfig, error) {
	rows, err := r.db.Reader().Query(
		`SELECT device_id, name, host, port, standby_schedule, created_at
		 FROM devices ORDER BY created_at, device_id`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var configs []DeviceConfig
	for rows.Next() {
		cfg, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (DeviceConfig, error) {
	var cfg DeviceConfig
	var createdAt string
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Host, &cfg.Port, &cfg.StandbySchedule, &createdAt); err != nil {
		return DeviceConfig{}, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		cfg.CreatedAt = t
	}
	return cfg, nil
}
