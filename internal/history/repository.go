package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmiyara/naim-hub-go/internal/db"
)

// Repository handles database access for state transitions.
type Repository struct {
	db *db.DBPair
}

func NewRepository(pair *db.DBPair) *Repository {
	return &Repository{db: pair}
}

// Insert writes one transition row and returns it with its generated ID.
func (r *Repository) Insert(deviceID, field, oldValue, newValue string, occurredAt time.Time) (Transition, error) {
	t := Transition{
		TransitionID: uuid.NewString(),
		DeviceID:     deviceID,
		Field:        field,
		OldValue:     oldValue,
		NewValue:     newValue,
		OccurredAt:   occurredAt.UTC(),
	}
	_, err := r.db.Writer().Exec(
		`INSERT INTO state_transitions (transition_id, device_id, field, old_value, new_value, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.TransitionID, t.DeviceID, t.Field, t.OldValue, t.NewValue, t.OccurredAt.Format(time.RFC3339),
	)
	if err != nil {
		return Transition{}, fmt.Errorf("insert transition: %w", err)
	}
	return t, nil
}

// Query returns transitions newest first, with the total count for paging.
func (r *Repository) Query(filters QueryFilters) ([]Transition, int, error) {
	var conditions []string
	var args []any
	if filters.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filters.DeviceID)
	}
	if filters.Field != "" {
		conditions = append(conditions, "field = ?")
		args = append(args, filters.Field)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM state_transitions" + where
	if err := r.db.Reader().QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transitions: %w", err)
	}

	query := `SELECT transition_id, device_id, field, old_value, new_value, occurred_at
		 FROM state_transitions` + where + ` ORDER BY occurred_at DESC, transition_id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.Reader().Query(query, append(args, filters.Limit, filters.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var t Transition
		var occurredAt string
		if err := rows.Scan(&t.TransitionID, &t.DeviceID, &t.Field, &t.OldValue, &t.NewValue, &occurredAt); err != nil {
			return nil, 0, err
		}
		if ts, err := time.Parse(time.RFC3339, occurredAt); err == nil {
			t.OccurredAt = ts
		}
		transitions = append(transitions, t)
	}
	return transitions, total, rows.Err()
}

// Prune deletes transitions older than the retention window.
func (r *Repository) Prune(retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339)
	res, err := r.db.Writer().Exec(`DELETE FROM state_transitions WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	return res.RowsAffected()
}
