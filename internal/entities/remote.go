package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

// CmdSend wraps a simple command name in its params, mirroring the host's
// remote command envelope.
const CmdSend = "send_cmd"

// remoteCommands is the simple command vocabulary the remote exposes.
// Source buttons are appended per device from its discovered inputs.
var remoteCommands = []string{
	"POWER_ON", "POWER_OFF", "POWER_TOGGLE",
	"VOLUME_UP", "VOLUME_DOWN", "MUTE", "UNMUTE", "MUTE_TOGGLE",
	"PLAY", "PAUSE", "PLAY_PAUSE", "STOP", "NEXT", "PREVIOUS",
}

// Remote exposes a button-style control surface for one device.
type Remote struct {
	id         string
	deviceID   string
	name       string
	controller Controller
	source     StateSource
	commands   []string
}

// NewRemote builds the remote adapter for one device. sourceList contributes
// one SOURCE_<ID> button per selectable input.
func NewRemote(deviceID, name string, controller Controller, source StateSource, sourceList []string) *Remote {
	commands := make([]string, 0, len(remoteCommands)+len(sourceList))
	commands = append(commands, remoteCommands...)
	for _, src := range sourceList {
		commands = append(commands, "SOURCE_"+strings.ToUpper(src))
	}

	return &Remote{
		id:         "remote.naim_" + deviceID,
		deviceID:   deviceID,
		name:       name + " Remote",
		controller: controller,
		source:     source,
		commands:   commands,
	}
}

func (r *Remote) ID() string       { return r.id }
func (r *Remote) DeviceID() string { return r.deviceID }
func (r *Remote) Kind() string     { return KindRemote }
func (r *Remote) Name() string     { return r.name }

// SimpleCommands lists the button vocabulary for entity descriptors.
func (r *Remote) SimpleCommands() []string {
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}

// Attributes reports the remote's own availability, derived from device
// reachability.
func (r *Remote) Attributes(st state.DeviceState) map[string]any {
	entState := StateOn
	if !st.Reachable && st.Power == state.PowerUnknown {
		entState = StateUnavailable
	}
	return map[string]any{
		"state":     entState,
		"reachable": st.Reachable,
	}
}

// HandleCommand accepts either the send_cmd envelope or a bare simple
// command name.
func (r *Remote) HandleCommand(ctx context.Context, command string, params map[string]any) error {
	if command == CmdSend {
		name, _ := params["command"].(string)
		if name == "" {
			return fmt.Errorf("send_cmd requires a command parameter: %w", ErrMissingParam)
		}
		command = name
	}

	if err := r.simpleCommand(ctx, command); err != nil {
		return err
	}

	r.source.Refresh()
	return nil
}

func (r *Remote) simpleCommand(ctx context.Context, command string) error {
	snapshot := r.source.Snapshot()

	switch command {
	case "POWER_ON":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: true})
	case "POWER_OFF":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: false})
	case "POWER_TOGGLE":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: snapshot.Power != state.PowerOn})
	case "VOLUME_UP", "VOLUME_DOWN":
		current := 0
		if snapshot.Volume != nil {
			current = *snapshot.Volume
		}
		target := current + volumeStep
		if command == "VOLUME_DOWN" {
			target = current - volumeStep
		}
		if target < 0 {
			target = 0
		} else if target > 100 {
			target = 100
		}
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetVolume, Volume: target})
	case "MUTE":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: true})
	case "UNMUTE":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: false})
	case "MUTE_TOGGLE":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: !snapshot.Muted})
	case "PLAY":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPlay})
	case "PAUSE":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPause})
	case "PLAY_PAUSE":
		if snapshot.Playback == state.PlaybackPlaying {
			return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPause})
		}
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPlay})
	case "STOP":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandStop})
	case "NEXT":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandNext})
	case "PREVIOUS":
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPrevious})
	}

	if src, ok := strings.CutPrefix(command, "SOURCE_"); ok && src != "" {
		return r.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetSource, Source: strings.ToLower(src)})
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedCommand, command)
}
