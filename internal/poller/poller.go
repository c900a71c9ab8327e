package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

// Defaults applied when options are zero.
const (
	DefaultInterval         = 5 * time.Second
	DefaultTimeout          = 3 * time.Second
	DefaultFailureThreshold = 3

	// updateBuffer bounds queued notifications per device. Overflow drops
	// the oldest queued update so the newest state always wins.
	updateBuffer = 16
)

// DeviceClient is the subset of the naim client the poller needs.
type DeviceClient interface {
	FetchNowPlaying(ctx context.Context) (*naim.NowPlaying, error)
	FetchPower(ctx context.Context) (*naim.PowerStatus, error)
	FetchLevels(ctx context.Context) (*naim.RoomLevels, error)
}

// Update carries one state transition to subscribers in poll order.
type Update struct {
	DeviceID string
	Previous state.DeviceState
	Current  state.DeviceState
	// Forced marks a post-recovery re-sync, published even when the new
	// reading equals the stale cached state.
	Forced bool
}

// Subscriber receives updates on the poller's dispatch goroutine; it must
// not block for long, and must never call back into the poller's tick.
type Subscriber func(Update)

// Options tunes one poller.
type Options struct {
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold int
	Logger           *log.Logger
}

// Poller periodically reconciles one device's state. It is the only writer
// of the device's DeviceState; readers get copies via Snapshot. Each device
// runs its own poller so a slow device never delays another's tick.
type Poller struct {
	deviceID  string
	client    DeviceClient
	sources   state.SourceNames
	interval  time.Duration
	timeout   time.Duration
	threshold int
	logger    *log.Logger

	mu       sync.RWMutex
	current  state.DeviceState
	failures int

	subscribers []Subscriber
	updates     chan Update
	refreshCh   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a poller for one device. Subscribe before calling Start.
func New(deviceID string, client DeviceClient, sources state.SourceNames, options Options) *Poller {
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.FailureThreshold <= 0 {
		options.FailureThreshold = DefaultFailureThreshold
	}
	if options.Logger == nil {
		options.Logger = log.Default()
	}

	return &Poller{
		deviceID:  deviceID,
		client:    client,
		sources:   sources,
		interval:  options.Interval,
		timeout:   options.Timeout,
		threshold: options.FailureThreshold,
		logger:    options.Logger,
		current:   state.Unknown(),
		updates:   make(chan Update, updateBuffer),
		refreshCh: make(chan struct{}, 1),
	}
}

// Subscribe registers a notification callback. Must be called before Start.
func (p *Poller) Subscribe(fn Subscriber) {
	p.subscribers = append(p.subscribers, fn)
}

// Start launches the poll loop and the dispatch goroutine.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel

		p.wg.Add(2)
		go func() {
			defer p.wg.Done()
			defer close(p.updates)
			p.runLoop(ctx)
		}()
		go func() {
			defer p.wg.Done()
			p.dispatchLoop()
		}()
	})
}

// Stop cancels the next tick, aborts any in-flight request for this device
// and waits for both goroutines. Other devices' pollers are unaffected.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
	})
}

// Refresh requests an immediate out-of-cycle poll, used after a command
// succeeds to shorten perceived latency. Coalesces if one is already queued.
func (p *Poller) Refresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() state.DeviceState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.Clone()
}

func (p *Poller) runLoop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		case <-p.refreshCh:
			p.tick(ctx)
		}
	}
}

func (p *Poller) dispatchLoop() {
	for update := range p.updates {
		for _, fn := range p.subscribers {
			fn(update)
		}
	}
}

// tick fetches power first; a device in standby answers /power but rejects
// /nowplaying, so the remaining endpoints are only read when powered on.
func (p *Poller) tick(ctx context.Context) {
	power, err := p.fetchPower(ctx)
	if err != nil {
		p.recordFailure(err)
		return
	}

	var nowPlaying *naim.NowPlaying
	var levels *naim.RoomLevels

	if power.On() {
		nowPlaying, err = p.fetchNowPlaying(ctx)
		if err != nil {
			if naim.IsUnreachable(err) {
				p.recordFailure(err)
				return
			}
			// Rejected or malformed: degrade to power-only state.
			p.logger.Printf("poller %s: nowplaying degraded: %v", p.deviceID, err)
			nowPlaying = nil
		}

		levels, err = p.fetchLevels(ctx)
		if err != nil {
			if naim.IsUnreachable(err) {
				p.recordFailure(err)
				return
			}
			p.logger.Printf("poller %s: levels degraded: %v", p.deviceID, err)
			levels = nil
		}
	}

	next := state.Normalize(nowPlaying, power, levels, p.sources)
	p.recordSuccess(next)
}

func (p *Poller) fetchPower(ctx context.Context) (*naim.PowerStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.FetchPower(callCtx)
}

func (p *Poller) fetchNowPlaying(ctx context.Context) (*naim.NowPlaying, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.FetchNowPlaying(callCtx)
}

func (p *Poller) fetchLevels(ctx context.Context) (*naim.RoomLevels, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.FetchLevels(callCtx)
}

// recordSuccess resets the failure counter. A success following failures is
// treated as authoritative and published regardless of diff, since state may
// have drifted while unreachable.
func (p *Poller) recordSuccess(next state.DeviceState) {
	p.mu.Lock()
	previous := p.current
	forced := p.failures > 0 || !previous.Reachable
	p.failures = 0

	if forced || !next.Equal(previous) {
		p.current = next
		p.mu.Unlock()
		if forced {
			p.logger.Printf("poller %s: recovered, forcing re-sync", p.deviceID)
		}
		p.publish(Update{DeviceID: p.deviceID, Previous: previous, Current: next.Clone(), Forced: forced})
		return
	}

	p.current.LastUpdated = next.LastUpdated
	p.mu.Unlock()
}

// recordFailure keeps last-known playback/power fields; only reachability
// flips, and only after the threshold, so transient blips don't flicker the
// UI.
func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	p.failures++
	failures := p.failures

	if failures >= p.threshold && p.current.Reachable {
		previous := p.current
		p.current.Reachable = false
		next := p.current.Clone()
		p.mu.Unlock()
		p.logger.Printf("poller %s: unreachable after %d consecutive failures: %v", p.deviceID, failures, err)
		p.publish(Update{DeviceID: p.deviceID, Previous: previous, Current: next})
		return
	}
	p.mu.Unlock()

	p.logger.Printf("poller %s: poll failed (%d/%d): %v", p.deviceID, failures, p.threshold, err)
}

// publish never blocks the tick: when the buffer is full the oldest queued
// update is dropped, preserving poll order for whatever is delivered.
func (p *Poller) publish(update Update) {
	select {
	case p.updates <- update:
		return
	default:
	}

	select {
	case <-p.updates:
		p.logger.Printf("poller %s: notification buffer full, dropping oldest update", p.deviceID)
	default:
	}

	select {
	case p.updates <- update:
	default:
	}
}
