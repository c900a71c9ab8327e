package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

// fakeClient scripts per-tick responses. Each call set is consumed in order;
// the last set repeats forever.
type fakeClient struct {
	mu      sync.Mutex
	scripts []scriptedTick
	calls   int
	block   chan struct{} // when set, FetchPower blocks until closed or ctx done
}

type scriptedTick struct {
	power      *naim.PowerStatus
	powerErr   error
	nowPlaying *naim.NowPlaying
	levels     *naim.RoomLevels
}

func (f *fakeClient) next() scriptedTick {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	if idx >= len(f.scripts) {
		idx = len(f.scripts) - 1
	}
	f.calls++
	return f.scripts[idx]
}

func (f *fakeClient) current() scriptedTick {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(f.scripts) {
		idx = len(f.scripts) - 1
	}
	return f.scripts[idx]
}

func (f *fakeClient) FetchPower(ctx context.Context) (*naim.PowerStatus, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &naim.UnreachableError{Endpoint: "/power", Err: ctx.Err()}
		}
	}
	tick := f.next()
	if tick.powerErr != nil {
		return nil, tick.powerErr
	}
	return tick.power, nil
}

func (f *fakeClient) FetchNowPlaying(ctx context.Context) (*naim.NowPlaying, error) {
	return f.current().nowPlaying, nil
}

func (f *fakeClient) FetchLevels(ctx context.Context) (*naim.RoomLevels, error) {
	return f.current().levels, nil
}

func playingTick(volume int) scriptedTick {
	return scriptedTick{
		power: &naim.PowerStatus{System: "on"},
		nowPlaying: &naim.NowPlaying{
			TransportState: naim.FlexInt(naim.TransportPlaying),
			Title:          "Track",
			Source:         "inputs/spotify",
		},
		levels: &naim.RoomLevels{Volume: naim.FlexInt(volume)},
	}
}

func unreachableTick() scriptedTick {
	return scriptedTick{powerErr: &naim.UnreachableError{Endpoint: "/power", Err: errors.New("connection refused")}}
}

func collectUpdates(p *Poller) (<-chan Update, func()) {
	ch := make(chan Update, 64)
	p.Subscribe(func(u Update) { ch <- u })
	return ch, func() { p.Stop() }
}

func waitUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func newTestPoller(client DeviceClient) *Poller {
	return New("dev-1", client, state.DefaultSourceNames(), Options{
		Interval: 20 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	})
}

func TestPoller_FirstPollPublishesForced(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{playingTick(40)}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	u := waitUpdate(t, updates)
	require.True(t, u.Forced)
	require.Equal(t, "dev-1", u.DeviceID)
	require.True(t, u.Current.Reachable)
	require.Equal(t, state.PlaybackPlaying, u.Current.Playback)
	require.Equal(t, "spotify", u.Current.Source)
	require.False(t, u.Previous.Reachable)
}

func TestPoller_NoUpdateWhenStateUnchanged(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{playingTick(40)}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	waitUpdate(t, updates) // initial forced sync

	select {
	case u := <-updates:
		t.Fatalf("unexpected update for unchanged state: %+v", u)
	case <-time.After(100 * time.Millisecond):
	}

	// LastUpdated still advances on silent polls.
	first := p.Snapshot().LastUpdated
	time.Sleep(60 * time.Millisecond)
	require.True(t, p.Snapshot().LastUpdated.After(first))
}

func TestPoller_ThresholdFlipsReachableOnce(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{
		playingTick(40),
		unreachableTick(),
	}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	first := waitUpdate(t, updates)
	require.True(t, first.Current.Reachable)

	// Failures below the threshold must not change the snapshot.
	time.Sleep(45 * time.Millisecond)
	require.True(t, p.Snapshot().Reachable)

	down := waitUpdate(t, updates)
	require.False(t, down.Current.Reachable)
	// Last-known fields survive the outage.
	require.Equal(t, state.PlaybackPlaying, down.Current.Playback)
	require.NotNil(t, down.Current.Volume)
	require.Equal(t, 40, *down.Current.Volume)

	// Staying down emits no further updates.
	select {
	case u := <-updates:
		t.Fatalf("unexpected repeat unreachable update: %+v", u)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestPoller_RecoveryForcesResync(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{
		playingTick(40),
		unreachableTick(),
		unreachableTick(),
		unreachableTick(),
		playingTick(40), // same state as before the outage
	}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	waitUpdate(t, updates) // initial
	down := waitUpdate(t, updates)
	require.False(t, down.Current.Reachable)

	up := waitUpdate(t, updates)
	require.True(t, up.Forced)
	require.True(t, up.Current.Reachable)
	require.Equal(t, state.PlaybackPlaying, up.Current.Playback)
}

func TestPoller_UpdatesDeliveredInPollOrder(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{
		playingTick(10),
		playingTick(20),
		playingTick(30),
	}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	var volumes []int
	for i := 0; i < 3; i++ {
		u := waitUpdate(t, updates)
		require.NotNil(t, u.Current.Volume)
		volumes = append(volumes, *u.Current.Volume)
	}
	require.Equal(t, []int{10, 20, 30}, volumes)
}

func TestPoller_RefreshTriggersImmediatePoll(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{playingTick(10), playingTick(50)}}
	p := New("dev-1", client, state.DefaultSourceNames(), Options{
		Interval: 5 * time.Second, // too long for the test to hit a tick
		Timeout:  100 * time.Millisecond,
	})
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()

	waitUpdate(t, updates)
	p.Refresh()

	u := waitUpdate(t, updates)
	require.Equal(t, 50, *u.Current.Volume)
}

func TestPoller_SlowDeviceDoesNotDelayOthers(t *testing.T) {
	block := make(chan struct{})
	slow := &fakeClient{scripts: []scriptedTick{playingTick(10)}, block: block}
	fast := &fakeClient{scripts: []scriptedTick{playingTick(20)}}

	slowPoller := newTestPoller(slow)
	fastPoller := New("dev-2", fast, state.DefaultSourceNames(), Options{
		Interval: 20 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	})

	fastUpdates, stopFast := collectUpdates(fastPoller)
	defer stopFast()
	_, stopSlow := collectUpdates(slowPoller)
	defer stopSlow()

	slowPoller.Start()
	fastPoller.Start()

	u := waitUpdate(t, fastUpdates)
	require.Equal(t, "dev-2", u.DeviceID)
	close(block)
}

func TestPoller_StopIsIdempotentAndHalts(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{playingTick(10)}}
	p := newTestPoller(client)
	p.Start()
	p.Stop()
	p.Stop()

	snapshotAfter := p.Snapshot()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, snapshotAfter.LastUpdated, p.Snapshot().LastUpdated)
}

func TestPoller_SnapshotIsACopy(t *testing.T) {
	client := &fakeClient{scripts: []scriptedTick{playingTick(40)}}
	p := newTestPoller(client)
	updates, stop := collectUpdates(p)
	defer stop()
	p.Start()
	waitUpdate(t, updates)

	snap := p.Snapshot()
	require.NotNil(t, snap.Volume)
	*snap.Volume = 99

	require.Equal(t, 40, *p.Snapshot().Volume)
}
