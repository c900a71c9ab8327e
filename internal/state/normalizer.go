package state

import (
	"strings"
	"time"

	"github.com/mmiyara/naim-hub-go/internal/naim"
)

// Normalize maps raw endpoint payloads into a canonical DeviceState. Any of
// the payloads may be nil: the device omits fields depending on the active
// source, and a device in standby answers /power but not /nowplaying.
// Missing data degrades to unknown/nil instead of failing.
func Normalize(nowPlaying *naim.NowPlaying, power *naim.PowerStatus, levels *naim.RoomLevels, sources SourceNames) DeviceState {
	out := Unknown()
	out.Reachable = true
	out.LastUpdated = time.Now().UTC()

	if power != nil {
		if power.On() {
			out.Power = PowerOn
		} else {
			out.Power = PowerStandby
			out.Playback = PlaybackStopped
		}
	}

	if levels != nil {
		volume := clampVolume(levels.Volume.Int())
		out.Volume = &volume
		out.Muted = levels.Mute.Bool()
	}

	if nowPlaying == nil {
		return out
	}

	switch nowPlaying.TransportState.Int() {
	case naim.TransportStopped:
		out.Playback = PlaybackStopped
	case naim.TransportPaused:
		out.Playback = PlaybackPaused
	case naim.TransportPlaying:
		out.Playback = PlaybackPlaying
	case naim.TransportBuffering:
		out.Playback = PlaybackBuffering
	default:
		out.Playback = PlaybackUnknown
	}

	out.Source = sourceID(nowPlaying.Source)
	if out.Source != "" {
		out.SourceName = sources.Name(out.Source)
	}

	out.Shuffle = nowPlaying.Shuffle.Bool()
	switch nowPlaying.Repeat.Int() {
	case 1:
		out.Repeat = RepeatOne
	case 2:
		out.Repeat = RepeatAll
	default:
		out.Repeat = RepeatOff
	}

	title := nowPlaying.Title
	if title == "" {
		title = nowPlaying.Station
	}
	if title != "" || nowPlaying.Artist != "" || nowPlaying.Album != "" {
		out.Track = &Track{
			Title:           title,
			Artist:          nowPlaying.Artist,
			Album:           nowPlaying.Album,
			ArtworkURL:      nowPlaying.Artwork,
			PositionSeconds: nowPlaying.TransportPosition.Int() / 1000,
			DurationSeconds: nowPlaying.Duration.Int() / 1000,
		}
	}

	return out
}

// sourceID strips the "inputs/" ussi prefix, e.g. "inputs/ana1" -> "ana1".
func sourceID(ussi string) string {
	if idx := strings.LastIndex(ussi, "/"); idx >= 0 {
		return ussi[idx+1:]
	}
	return ussi
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}
