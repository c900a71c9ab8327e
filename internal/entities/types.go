package entities

import (
	"context"
	"errors"

	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

var (
	// ErrUnsupportedCommand marks a command outside the entity's vocabulary.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrMissingParam marks a command whose required parameter is absent or
	// of the wrong type.
	ErrMissingParam = errors.New("missing command parameter")
)

// Entity kinds surfaced to the host.
const (
	KindMediaPlayer = "media_player"
	KindRemote      = "remote"
)

// Host-visible entity state attribute values.
const (
	StateOn          = "ON"
	StateOff         = "OFF"
	StatePlaying     = "PLAYING"
	StatePaused      = "PAUSED"
	StateBuffering   = "BUFFERING"
	StateUnknown     = "UNKNOWN"
	StateUnavailable = "UNAVAILABLE"
)

// Controller is the subset of the device client adapters issue commands
// through.
type Controller interface {
	SendCommand(ctx context.Context, cmd naim.Command) error
}

// StateSource provides the current canonical snapshot and accepts requests
// for an immediate out-of-cycle poll.
type StateSource interface {
	Snapshot() state.DeviceState
	Refresh()
}

// Entity is a host-framework-visible controllable object bound to one
// device. Attributes is a pure translation of a snapshot; HandleCommand
// translates a host command into device client calls.
type Entity interface {
	ID() string
	DeviceID() string
	Kind() string
	Name() string
	Attributes(st state.DeviceState) map[string]any
	HandleCommand(ctx context.Context, command string, params map[string]any) error
}

// entityState maps the canonical snapshot onto the host's single state
// attribute. Stale-but-known values are surfaced as-is during outages;
// only a device that never answered reports UNKNOWN.
func entityState(st state.DeviceState) string {
	if st.Power == state.PowerStandby {
		return StateOff
	}
	switch st.Playback {
	case state.PlaybackPlaying:
		return StatePlaying
	case state.PlaybackPaused:
		return StatePaused
	case state.PlaybackBuffering:
		return StateBuffering
	case state.PlaybackStopped:
		return StateOn
	}
	if st.Power == state.PowerOn {
		return StateOn
	}
	return StateUnknown
}
