package state

import "time"

// PowerState is the canonical power value.
type PowerState string

const (
	PowerOn      PowerState = "on"
	PowerStandby PowerState = "standby"
	PowerUnknown PowerState = "unknown"
)

// PlaybackState is the canonical playback value.
type PlaybackState string

const (
	PlaybackPlaying   PlaybackState = "playing"
	PlaybackPaused    PlaybackState = "paused"
	PlaybackStopped   PlaybackState = "stopped"
	PlaybackBuffering PlaybackState = "buffering"
	PlaybackUnknown   PlaybackState = "unknown"
)

// RepeatMode is the canonical repeat value.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// Track holds current-track metadata; absent fields stay zero.
type Track struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	ArtworkURL      string `json:"artwork_url"`
	PositionSeconds int    `json:"position_seconds"`
	DurationSeconds int    `json:"duration_seconds"`
}

// DeviceState is the canonical, vendor-independent device status. It is
// written only by the device's poller; consumers get copies.
type DeviceState struct {
	Power       PowerState    `json:"power"`
	Playback    PlaybackState `json:"playback"`
	Source      string        `json:"source,omitempty"`
	SourceName  string        `json:"source_name,omitempty"`
	Volume      *int          `json:"volume,omitempty"`
	Muted       bool          `json:"muted"`
	Track       *Track        `json:"track,omitempty"`
	Repeat      RepeatMode    `json:"repeat"`
	Shuffle     bool          `json:"shuffle"`
	LastUpdated time.Time     `json:"last_updated"`
	Reachable   bool          `json:"reachable"`
}

// Unknown returns the initial state before the first successful poll.
func Unknown() DeviceState {
	return DeviceState{
		Power:     PowerUnknown,
		Playback:  PlaybackUnknown,
		Repeat:    RepeatOff,
		Reachable: false,
	}
}

// Equal compares everything except LastUpdated, which advances every poll.
func (s DeviceState) Equal(other DeviceState) bool {
	if s.Power != other.Power ||
		s.Playback != other.Playback ||
		s.Source != other.Source ||
		s.SourceName != other.SourceName ||
		s.Muted != other.Muted ||
		s.Repeat != other.Repeat ||
		s.Shuffle != other.Shuffle ||
		s.Reachable != other.Reachable {
		return false
	}
	if (s.Volume == nil) != (other.Volume == nil) {
		return false
	}
	if s.Volume != nil && *s.Volume != *other.Volume {
		return false
	}
	if (s.Track == nil) != (other.Track == nil) {
		return false
	}
	if s.Track != nil && *s.Track != *other.Track {
		return false
	}
	return true
}

// Clone returns a deep copy safe to hand to subscribers.
func (s DeviceState) Clone() DeviceState {
	out := s
	if s.Volume != nil {
		volume := *s.Volume
		out.Volume = &volume
	}
	if s.Track != nil {
		track := *s.Track
		out.Track = &track
	}
	return out
}
