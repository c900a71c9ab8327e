package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxDevices is the default registry capacity.
const MaxDevices = 10

var (
	ErrCapacityExceeded = errors.New("device capacity exceeded")
	ErrDuplicateDevice  = errors.New("device with this host:port already exists")
	ErrDeviceNotFound   = errors.New("device not found")
)

// ConfigError reports a setup-time validation failure.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid device config: %s: %s", e.Field, e.Reason)
}

// DeviceConfig identifies one physical device. Immutable after creation.
type DeviceConfig struct {
	ID              string    `json:"device_id"`
	Name            string    `json:"name"`
	Host            string    `json:"host"`
	Port            int       `json:"port"`
	StandbySchedule string    `json:"standby_schedule,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Key is the registry identity: host:port.
func (c DeviceConfig) Key() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AddInput is the request to register one device.
type AddInput struct {
	Name            string `json:"name"`
	Host            string `json:"host"`
	Port            int    `json:"port"`
	StandbySchedule string `json:"standby_schedule"`
}

func (in *AddInput) validate() error {
	in.Host = strings.TrimSpace(in.Host)
	if in.Host == "" {
		return &ConfigError{Field: "host", Reason: "must not be empty"}
	}
	if strings.ContainsAny(in.Host, " /?#") {
		return &ConfigError{Field: "host", Reason: "must be a hostname or IP address"}
	}
	if in.Port == 0 {
		in.Port = defaultDevicePort
	}
	if in.Port < 1 || in.Port > 65535 {
		return &ConfigError{Field: "port", Reason: "must be between 1 and 65535"}
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = in.Host
	}
	return nil
}

// BatchResult reports the per-device outcome of a batch add. A failed entry
// never aborts the rest of the batch.
type BatchResult struct {
	Host   string        `json:"host"`
	Port   int           `json:"port"`
	Status string        `json:"status"` // "added" or "failed"
	Device *DeviceConfig `json:"device,omitempty"`
	Error  string        `json:"error,omitempty"`
	Code   string        `json:"code,omitempty"`
}
