package naim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Transport states reported by /nowplaying.
const (
	TransportStopped   = 0
	TransportPaused    = 1
	TransportPlaying   = 2
	TransportBuffering = 3
)

// Power values used by /power?system=.
const (
	PowerSystemOn      = "on"
	PowerSystemStandby = "lona"
)

// FlexInt decodes vendor scalars that arrive as either JSON numbers or
// numeric strings; firmware versions differ on which they emit.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		// Tolerate fractional positions some firmware emits.
		var fl float64
		if ferr := json.Unmarshal(data, &fl); ferr != nil {
			return err
		}
		n = int(fl)
	}
	*f = FlexInt(n)
	return nil
}

func (f FlexInt) Int() int { return int(f) }

// FlexBool decodes "1"/"0", 1/0, and true/false.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "":
		*f = false
		return nil
	case "true", "1", `"1"`, `"true"`, `"on"`:
		*f = true
		return nil
	case "false", "0", `"0"`, `"false"`, `"off"`, `""`:
		*f = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexBool(b)
	return nil
}

func (f FlexBool) Bool() bool { return bool(f) }

// NowPlaying is the raw /nowplaying payload. Fields are omitted by the device
// depending on the active source.
type NowPlaying struct {
	TransportState    FlexInt  `json:"transportState"`
	TransportPosition FlexInt  `json:"transportPosition"` // milliseconds
	Duration          FlexInt  `json:"duration"`          // milliseconds, often absent
	Title             string   `json:"title"`
	Artist            string   `json:"artist"`
	Album             string   `json:"album"`
	Artwork           string   `json:"artwork"`
	Station           string   `json:"station"`
	Source            string   `json:"source"` // ussi, e.g. "inputs/ana1"
	Repeat            FlexInt  `json:"repeat"` // 0 off, 1 one, 2 all
	Shuffle           FlexBool `json:"shuffle"`
	Live              FlexBool `json:"live"`
	CanResume         FlexBool `json:"canResume"`
}

// PowerStatus is the raw /power payload. "lona" is the network-standby value.
type PowerStatus struct {
	State  string `json:"state"`
	System string `json:"system"`
}

// On reports whether the device is fully powered.
func (p PowerStatus) On() bool {
	return strings.EqualFold(p.State, "on") || strings.EqualFold(p.System, "on")
}

// RoomLevels is the raw /levels/room payload.
type RoomLevels struct {
	Volume FlexInt  `json:"volume"`
	Mute   FlexBool `json:"mute"`
}

// SystemInfo is the raw /system payload.
type SystemInfo struct {
	Model    string `json:"model"`
	Hostname string `json:"hostname"`
}

// Input describes one entry of the /inputs children list.
type Input struct {
	USSI       string   `json:"ussi"`
	Name       string   `json:"name"`
	Selectable FlexBool `json:"selectable"`
	Disabled   FlexBool `json:"disabled"`
}

// SourceID returns the short source identifier from the input's ussi.
func (i Input) SourceID() string {
	if idx := strings.LastIndex(i.USSI, "/"); idx >= 0 {
		return i.USSI[idx+1:]
	}
	return i.USSI
}

type inputsResponse struct {
	Children []Input `json:"children"`
}

// CommandKind enumerates the operations SendCommand accepts.
type CommandKind string

const (
	CommandPlay       CommandKind = "play"
	CommandPause      CommandKind = "pause"
	CommandStop       CommandKind = "stop"
	CommandNext       CommandKind = "next"
	CommandPrevious   CommandKind = "previous"
	CommandSetVolume  CommandKind = "set_volume"
	CommandSetMute    CommandKind = "set_mute"
	CommandSetSource  CommandKind = "set_source"
	CommandSetPower   CommandKind = "set_power"
	CommandSetRepeat  CommandKind = "set_repeat"
	CommandSetShuffle CommandKind = "set_shuffle"
)

// Command carries a command kind and its arguments. Only the fields relevant
// to the kind are read.
type Command struct {
	Kind    CommandKind
	Volume  int
	Mute    bool
	Source  string
	PowerOn bool
	Repeat  string // "off", "one", "all"
	Shuffle bool
}
