package entities

import (
	"context"
	"fmt"
	"log"

	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

// volumeStep is the increment for volume_up/volume_down commands.
const volumeStep = 3

// Media player commands accepted from the host.
const (
	CmdOn           = "on"
	CmdOff          = "off"
	CmdToggle       = "toggle"
	CmdPlayPause    = "play_pause"
	CmdStop         = "stop"
	CmdNext         = "next"
	CmdPrevious     = "previous"
	CmdVolume       = "volume"
	CmdVolumeUp     = "volume_up"
	CmdVolumeDown   = "volume_down"
	CmdMute         = "mute"
	CmdUnmute       = "unmute"
	CmdMuteToggle   = "mute_toggle"
	CmdSelectSource = "select_source"
	CmdRepeat       = "repeat"
	CmdShuffle      = "shuffle"
)

// MediaPlayer translates canonical device state into the host's media player
// attribute model and host commands into device client calls.
type MediaPlayer struct {
	id         string
	deviceID   string
	name       string
	controller Controller
	source     StateSource
	sourceList []string
	logger     *log.Logger
}

// NewMediaPlayer builds the media player adapter for one device. sourceList
// is the selectable inputs discovered at registration time.
func NewMediaPlayer(deviceID, name string, controller Controller, source StateSource, sourceList []string, logger *log.Logger) *MediaPlayer {
	if logger == nil {
		logger = log.Default()
	}
	return &MediaPlayer{
		id:         "media_player.naim_" + deviceID,
		deviceID:   deviceID,
		name:       name,
		controller: controller,
		source:     source,
		sourceList: sourceList,
		logger:     logger,
	}
}

func (m *MediaPlayer) ID() string       { return m.id }
func (m *MediaPlayer) DeviceID() string { return m.deviceID }
func (m *MediaPlayer) Kind() string     { return KindMediaPlayer }
func (m *MediaPlayer) Name() string     { return m.name }

// Attributes maps a snapshot onto the host attribute set.
func (m *MediaPlayer) Attributes(st state.DeviceState) map[string]any {
	attrs := map[string]any{
		"state":       entityState(st),
		"muted":       st.Muted,
		"source":      st.Source,
		"source_name": st.SourceName,
		"source_list": m.sourceList,
		"repeat":      string(st.Repeat),
		"shuffle":     st.Shuffle,
		"reachable":   st.Reachable,
	}
	if st.Volume != nil {
		attrs["volume"] = *st.Volume
	}
	if st.Track != nil {
		attrs["media_title"] = st.Track.Title
		attrs["media_artist"] = st.Track.Artist
		attrs["media_album"] = st.Track.Album
		attrs["media_image_url"] = st.Track.ArtworkURL
		attrs["media_position"] = st.Track.PositionSeconds
		attrs["media_duration"] = st.Track.DurationSeconds
	}
	return attrs
}

// HandleCommand executes one host command. On success it requests an
// immediate poll so the cached state catches up without waiting a full tick.
func (m *MediaPlayer) HandleCommand(ctx context.Context, command string, params map[string]any) error {
	snapshot := m.source.Snapshot()

	var err error
	switch command {
	case CmdOn:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: true})
	case CmdOff:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: false})
	case CmdToggle:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetPower, PowerOn: snapshot.Power != state.PowerOn})
	case CmdPlayPause:
		if snapshot.Playback == state.PlaybackPlaying {
			err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPause})
		} else {
			err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPlay})
		}
	case CmdStop:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandStop})
	case CmdNext:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandNext})
	case CmdPrevious:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandPrevious})
	case CmdVolume:
		volume, ok := intParam(params, "volume")
		if !ok {
			return fmt.Errorf("volume command requires a volume parameter: %w", ErrMissingParam)
		}
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetVolume, Volume: volume})
	case CmdVolumeUp:
		err = m.stepVolume(ctx, snapshot, volumeStep)
	case CmdVolumeDown:
		err = m.stepVolume(ctx, snapshot, -volumeStep)
	case CmdMute:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: true})
	case CmdUnmute:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: false})
	case CmdMuteToggle:
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetMute, Mute: !snapshot.Muted})
	case CmdSelectSource:
		sourceID, _ := params["source"].(string)
		if sourceID == "" {
			return fmt.Errorf("select_source command requires a source parameter: %w", ErrMissingParam)
		}
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetSource, Source: sourceID})
	case CmdRepeat:
		mode, _ := params["repeat"].(string)
		if mode == "" {
			mode = string(state.RepeatOff)
		}
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetRepeat, Repeat: mode})
	case CmdShuffle:
		enabled, _ := params["shuffle"].(bool)
		err = m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetShuffle, Shuffle: enabled})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCommand, command)
	}

	if err != nil {
		return err
	}

	m.source.Refresh()
	return nil
}

func (m *MediaPlayer) stepVolume(ctx context.Context, snapshot state.DeviceState, delta int) error {
	current := 0
	if snapshot.Volume != nil {
		current = *snapshot.Volume
	}
	target := current + delta
	if target < 0 {
		target = 0
	} else if target > 100 {
		target = 100
	}
	return m.controller.SendCommand(ctx, naim.Command{Kind: naim.CommandSetVolume, Volume: target})
}

func intParam(params map[string]any, key string) (int, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
