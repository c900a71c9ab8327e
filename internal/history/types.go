package history

import "time"

// Transition records one field of device state changing value.
type Transition struct {
	TransitionID string    `json:"transition_id"`
	DeviceID     string    `json:"device_id"`
	Field        string    `json:"field"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// QueryFilters narrows a transition query. Zero values mean no filter.
type QueryFilters struct {
	DeviceID string
	Field    string
	Limit    int
	Offset   int
}
