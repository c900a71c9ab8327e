package registry

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmiyara/naim-hub-go/internal/entities"
	"github.com/mmiyara/naim-hub-go/internal/naim"
	"github.com/mmiyara/naim-hub-go/internal/poller"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

const defaultDevicePort = naim.DefaultPort

// fallback source list when the device cannot be asked during registration.
var defaultSourceList = []string{"radio", "bluetooth", "spotify", "dig5", "hdmi"}

// StateListener receives every state update published by any device poller.
type StateListener func(update poller.Update)

// StandbyScheduler manages per-device standby jobs. Implemented by the
// standby package; an interface here keeps the registry free of cron details.
type StandbyScheduler interface {
	Validate(schedule string) error
	Set(deviceID, schedule string, fn func()) error
	Remove(deviceID string)
}

// Entry is everything the hub holds for one registered device.
type Entry struct {
	Config      DeviceConfig
	Client      *naim.Client
	Poller      *poller.Poller
	MediaPlayer *entities.MediaPlayer
	Remote      *entities.Remote
}

// Options configures a Registry.
type Options struct {
	MaxDevices       int
	Timeout          time.Duration
	PollInterval     time.Duration
	FailureThreshold int
	Scheduler        StandbyScheduler
	Logger           *log.Logger
}

// Registry owns the set of registered devices and their runtime objects.
// All mutation goes through Add/Remove; pollers are started and stopped here.
type Registry struct {
	repo      *Repository
	sources   state.SourceNames
	opts      Options
	logger    *log.Logger
	listeners []StateListener

	mu      sync.RWMutex
	entries map[string]*Entry
}

func New(repo *Repository, sources state.SourceNames, opts Options) *Registry {
	if opts.MaxDevices <= 0 {
		opts.MaxDevices = MaxDevices
	}
	if opts.Timeout <= 0 {
		opts.Timeout = poller.DefaultTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = poller.DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		repo:    repo,
		sources: sources,
		opts:    opts,
		logger:  logger,
		entries: make(map[string]*Entry),
	}
}

// AddListener registers a fanout target for poller updates. Must be called
// before Start.
func (r *Registry) AddListener(fn StateListener) {
	r.listeners = append(r.listeners, fn)
}

// Start reloads persisted devices and starts a poller for each. It must
// complete before the HTTP server begins accepting requests so that device
// state is being reconciled from the first request onward.
func (r *Registry) Start(ctx context.Context) error {
	configs, err := r.repo.GetAll()
	if err != nil {
		return err
	}
	entries := make([]*Entry, 0, len(configs))
	for _, cfg := range configs {
		entries = append(entries, r.buildEntry(ctx, cfg))
	}

	r.mu.Lock()
	for _, entry := range entries {
		r.entries[entry.Config.ID] = entry
		entry.Poller.Start()
		r.scheduleStandby(entry)
	}
	count := len(r.entries)
	r.mu.Unlock()

	r.logger.Printf("registry: started with %d device(s)", count)
	return nil
}

// Add validates, persists and starts one device. The device does not have to
// be reachable at registration time; the poller marks it unreachable until it
// responds.
func (r *Registry) Add(ctx context.Context, in AddInput) (DeviceConfig, error) {
	if err := in.validate(); err != nil {
		return DeviceConfig{}, err
	}
	if in.StandbySchedule != "" && r.opts.Scheduler != nil {
		if err := r.opts.Scheduler.Validate(in.StandbySchedule); err != nil {
			return DeviceConfig{}, &ConfigError{Field: "standby_schedule", Reason: err.Error()}
		}
	}

	cfg := DeviceConfig{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Host:            in.Host,
		Port:            in.Port,
		StandbySchedule: in.StandbySchedule,
		CreatedAt:       time.Now().UTC(),
	}
	// Input discovery talks to the device, so it happens before the lock.
	entry := r.buildEntry(ctx, cfg)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.opts.MaxDevices {
		entry.Client.CloseIdleConnections()
		return DeviceConfig{}, ErrCapacityExceeded
	}
	for _, existing := range r.entries {
		if existing.Config.Key() == cfg.Key() {
			entry.Client.CloseIdleConnections()
			return DeviceConfig{}, ErrDuplicateDevice
		}
	}
	if err := r.repo.Insert(cfg); err != nil {
		return DeviceConfig{}, err
	}

	r.entries[cfg.ID] = entry
	entry.Poller.Start()
	r.scheduleStandby(entry)
	r.logger.Printf("registry: added device %s (%s)", cfg.ID, cfg.Key())
	return cfg, nil
}

// AddBatch registers several devices, continuing past individual failures.
func (r *Registry) AddBatch(ctx context.Context, inputs []AddInput) []BatchResult {
	results := make([]BatchResult, 0, len(inputs))
	for _, in := range inputs {
		res := BatchResult{Host: in.Host, Port: in.Port}
		cfg, err := r.Add(ctx, in)
		if err != nil {
			res.Status = "failed"
			res.Error = err.Error()
			res.Code = batchErrorCode(err)
		} else {
			res.Status = "added"
			res.Port = cfg.Port
			res.Device = &cfg
		}
		results = append(results, res)
	}
	return results
}

// Remove stops the device's poller, cancels its standby job and deletes the
// persisted config.
func (r *Registry) Remove(deviceID string) error {
	r.mu.Lock()
	entry, ok := r.entries[deviceID]
	if ok {
		delete(r.entries, deviceID)
	}
	r.mu.Unlock()
	if !ok {
		return ErrDeviceNotFound
	}

	entry.Poller.Stop()
	entry.Client.CloseIdleConnections()
	if r.opts.Scheduler != nil {
		r.opts.Scheduler.Remove(deviceID)
	}
	if err := r.repo.Delete(deviceID); err != nil && err != ErrDeviceNotFound {
		return err
	}
	r.logger.Printf("registry: removed device %s (%s)", deviceID, entry.Config.Key())
	return nil
}

// Get returns the config for one device.
func (r *Registry) Get(deviceID string) (DeviceConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[deviceID]
	if !ok {
		return DeviceConfig{}, false
	}
	return entry.Config, true
}

// List returns all device configs ordered by creation time.
func (r *Registry) List() []DeviceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	configs := make([]DeviceConfig, 0, len(r.entries))
	for _, entry := range r.entries {
		configs = append(configs, entry.Config)
	}
	sort.Slice(configs, func(i, j int) bool {
		if configs[i].CreatedAt.Equal(configs[j].CreatedAt) {
			return configs[i].ID < configs[j].ID
		}
		return configs[i].CreatedAt.Before(configs[j].CreatedAt)
	})
	return configs
}

// State returns the current state snapshot for one device.
func (r *Registry) State(deviceID string) (state.DeviceState, error) {
	r.mu.RLock()
	entry, ok := r.entries[deviceID]
	r.mu.RUnlock()
	if !ok {
		return state.DeviceState{}, ErrDeviceNotFound
	}
	return entry.Poller.Snapshot(), nil
}

// System fetches live model and hostname information from a device.
func (r *Registry) System(ctx context.Context, deviceID string) (*naim.SystemInfo, error) {
	r.mu.RLock()
	entry, ok := r.entries[deviceID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return entry.Client.FetchSystem(ctx)
}

// Refresh requests an out-of-cycle poll for one device.
func (r *Registry) Refresh(deviceID string) error {
	r.mu.RLock()
	entry, ok := r.entries[deviceID]
	r.mu.RUnlock()
	if !ok {
		return ErrDeviceNotFound
	}
	entry.Poller.Refresh()
	return nil
}

// Entities returns every entity across all devices, ordered by entity ID.
func (r *Registry) Entities() []entities.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]entities.Entity, 0, len(r.entries)*2)
	for _, entry := range r.entries {
		all = append(all, entry.MediaPlayer, entry.Remote)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}

// Entity looks up a single entity by its entity ID.
func (r *Registry) Entity(entityID string) (entities.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		if entry.MediaPlayer.ID() == entityID {
			return entry.MediaPlayer, true
		}
		if entry.Remote.ID() == entityID {
			return entry.Remote, true
		}
	}
	return nil, false
}

// EntitiesFor returns the two entities belonging to one device.
func (r *Registry) EntitiesFor(deviceID string) ([]entities.Entity, error) {
	r.mu.RLock()
	entry, ok := r.entries[deviceID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return []entities.Entity{entry.MediaPlayer, entry.Remote}, nil
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops every poller and waits for their loops to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.Poller.Stop()
		entry.Client.CloseIdleConnections()
		if r.opts.Scheduler != nil {
			r.opts.Scheduler.Remove(entry.Config.ID)
		}
	}
}

func (r *Registry) buildEntry(ctx context.Context, cfg DeviceConfig) *Entry {
	client := naim.NewClient(cfg.Host, cfg.Port, r.opts.Timeout)
	p := poller.New(cfg.ID, client, r.sources, poller.Options{
		Interval:         r.opts.PollInterval,
		Timeout:          r.opts.Timeout,
		FailureThreshold: r.opts.FailureThreshold,
		Logger:           r.logger,
	})
	for _, fn := range r.listeners {
		p.Subscribe(poller.Subscriber(fn))
	}

	sourceList := r.discoverSources(ctx, client)
	return &Entry{
		Config:      cfg,
		Client:      client,
		Poller:      p,
		MediaPlayer: entities.NewMediaPlayer(cfg.ID, cfg.Name, client, p, sourceList, r.logger),
		Remote:      entities.NewRemote(cfg.ID, cfg.Name, client, p, sourceList),
	}
}

// discoverSources asks the device for its selectable inputs. Best effort: an
// unreachable device gets the fallback list and keeps working once it shows up.
func (r *Registry) discoverSources(ctx context.Context, client *naim.Client) []string {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	inputs, err := client.FetchInputs(fetchCtx)
	if err != nil || len(inputs) == 0 {
		return append([]string(nil), defaultSourceList...)
	}
	sourceList := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if bool(in.Selectable) && !bool(in.Disabled) {
			sourceList = append(sourceList, in.SourceID())
		}
	}
	if len(sourceList) == 0 {
		return append([]string(nil), defaultSourceList...)
	}
	return sourceList
}

func (r *Registry) scheduleStandby(entry *Entry) {
	if r.opts.Scheduler == nil || entry.Config.StandbySchedule == "" {
		return
	}
	client := entry.Client
	deviceID := entry.Config.ID
	err := r.opts.Scheduler.Set(deviceID, entry.Config.StandbySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
		defer cancel()
		cmd := naim.Command{Kind: naim.CommandSetPower, PowerOn: false}
		if err := client.SendCommand(ctx, cmd); err != nil {
			r.logger.Printf("registry: scheduled standby for %s failed: %v", deviceID, err)
		}
	})
	if err != nil {
		r.logger.Printf("registry: could not schedule standby for %s: %v", deviceID, err)
	}
}

func batchErrorCode(err error) string {
	switch {
	case err == ErrCapacityExceeded:
		return "CAPACITY_EXCEEDED"
	case err == ErrDuplicateDevice:
		return "DUPLICATE_DEVICE"
	default:
		if _, ok := err.(*ConfigError); ok {
			return "CONFIG_INVALID"
		}
		return "INTERNAL_ERROR"
	}
}
