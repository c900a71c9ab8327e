package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmiyara/naim-hub-go/internal/naim"
)

func flexInt(n int) naim.FlexInt    { return naim.FlexInt(n) }
func flexBool(b bool) naim.FlexBool { return naim.FlexBool(b) }

func TestNormalize_PlayingWithTrack(t *testing.T) {
	nowPlaying := &naim.NowPlaying{
		TransportState:    flexInt(naim.TransportPlaying),
		TransportPosition: flexInt(93500),
		Duration:          flexInt(240000),
		Title:             "So What",
		Artist:            "Miles Davis",
		Album:             "Kind of Blue",
		Artwork:           "http://device/art.jpg",
		Source:            "inputs/ana1",
		Repeat:            flexInt(0),
		Shuffle:           flexBool(false),
	}
	power := &naim.PowerStatus{System: "on"}
	levels := &naim.RoomLevels{Volume: flexInt(42), Mute: flexBool(false)}

	st := Normalize(nowPlaying, power, levels, DefaultSourceNames())

	require.Equal(t, PowerOn, st.Power)
	require.Equal(t, PlaybackPlaying, st.Playback)
	require.Equal(t, "ana1", st.Source)
	require.Equal(t, "Analogue 1", st.SourceName)
	require.NotNil(t, st.Volume)
	require.Equal(t, 42, *st.Volume)
	require.False(t, st.Muted)
	require.Equal(t, RepeatOff, st.Repeat)
	require.False(t, st.Shuffle)
	require.True(t, st.Reachable)
	require.False(t, st.LastUpdated.IsZero())

	require.NotNil(t, st.Track)
	require.Equal(t, "So What", st.Track.Title)
	require.Equal(t, "Miles Davis", st.Track.Artist)
	require.Equal(t, "Kind of Blue", st.Track.Album)
	require.Equal(t, "http://device/art.jpg", st.Track.ArtworkURL)
	require.Equal(t, 93, st.Track.PositionSeconds)
	require.Equal(t, 240, st.Track.DurationSeconds)
}

func TestNormalize_StandbyForcesStopped(t *testing.T) {
	power := &naim.PowerStatus{System: "lona"}

	st := Normalize(nil, power, nil, DefaultSourceNames())

	require.Equal(t, PowerStandby, st.Power)
	require.Equal(t, PlaybackStopped, st.Playback)
	require.Nil(t, st.Volume)
	require.Nil(t, st.Track)
	require.True(t, st.Reachable)
}

func TestNormalize_VolumeClamped(t *testing.T) {
	sources := DefaultSourceNames()

	low := Normalize(nil, &naim.PowerStatus{System: "on"}, &naim.RoomLevels{Volume: flexInt(-5)}, sources)
	require.NotNil(t, low.Volume)
	require.Equal(t, 0, *low.Volume)

	high := Normalize(nil, &naim.PowerStatus{System: "on"}, &naim.RoomLevels{Volume: flexInt(133)}, sources)
	require.NotNil(t, high.Volume)
	require.Equal(t, 100, *high.Volume)
}

func TestNormalize_TransportStates(t *testing.T) {
	cases := []struct {
		transport int
		want      PlaybackState
	}{
		{naim.TransportStopped, PlaybackStopped},
		{naim.TransportPaused, PlaybackPaused},
		{naim.TransportPlaying, PlaybackPlaying},
		{naim.TransportBuffering, PlaybackBuffering},
		{9, PlaybackUnknown},
	}
	for _, tc := range cases {
		nowPlaying := &naim.NowPlaying{TransportState: flexInt(tc.transport)}
		st := Normalize(nowPlaying, &naim.PowerStatus{System: "on"}, nil, DefaultSourceNames())
		require.Equal(t, tc.want, st.Playback, "transportState %d", tc.transport)
	}
}

func TestNormalize_UnknownSourcePassesThrough(t *testing.T) {
	nowPlaying := &naim.NowPlaying{
		TransportState: flexInt(naim.TransportStopped),
		Source:         "inputs/newdevice9",
	}

	st := Normalize(nowPlaying, &naim.PowerStatus{System: "on"}, nil, DefaultSourceNames())

	require.Equal(t, "newdevice9", st.Source)
	require.Equal(t, "newdevice9", st.SourceName)
}

func TestNormalize_StationAsTitle(t *testing.T) {
	nowPlaying := &naim.NowPlaying{
		TransportState: flexInt(naim.TransportPlaying),
		Station:        "BBC Radio 4",
		Source:         "inputs/radio",
	}

	st := Normalize(nowPlaying, &naim.PowerStatus{System: "on"}, nil, DefaultSourceNames())

	require.NotNil(t, st.Track)
	require.Equal(t, "BBC Radio 4", st.Track.Title)
	require.Equal(t, "Internet Radio", st.SourceName)
}

func TestNormalize_NoTrackWhenMetadataEmpty(t *testing.T) {
	nowPlaying := &naim.NowPlaying{TransportState: flexInt(naim.TransportStopped)}

	st := Normalize(nowPlaying, &naim.PowerStatus{System: "on"}, nil, DefaultSourceNames())

	require.Nil(t, st.Track)
}

func TestNormalize_RepeatModes(t *testing.T) {
	for raw, want := range map[int]RepeatMode{0: RepeatOff, 1: RepeatOne, 2: RepeatAll, 7: RepeatOff} {
		nowPlaying := &naim.NowPlaying{Repeat: flexInt(raw)}
		st := Normalize(nowPlaying, &naim.PowerStatus{System: "on"}, nil, DefaultSourceNames())
		require.Equal(t, want, st.Repeat, "repeat %d", raw)
	}
}

func TestDeviceState_EqualIgnoresLastUpdated(t *testing.T) {
	volume := 30
	a := DeviceState{Power: PowerOn, Playback: PlaybackPlaying, Volume: &volume, Reachable: true}
	b := a.Clone()
	b.LastUpdated = b.LastUpdated.Add(5000)

	require.True(t, a.Equal(b))

	other := 31
	b.Volume = &other
	require.False(t, a.Equal(b))
}

func TestDeviceState_CloneIsDeep(t *testing.T) {
	volume := 30
	st := DeviceState{
		Volume: &volume,
		Track:  &Track{Title: "original"},
	}

	clone := st.Clone()
	*clone.Volume = 99
	clone.Track.Title = "changed"

	require.Equal(t, 30, *st.Volume)
	require.Equal(t, "original", st.Track.Title)
}
