package history

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/mmiyara/naim-hub-go/internal/state"
)

const (
	DefaultRetentionDays = 90
	DefaultPruneInterval = 24 * time.Hour
	DefaultQueryLimit    = 100
	MaxQueryLimit        = 1000
)

// Service records device state transitions and prunes old ones in the
// background.
type Service struct {
	logger        *log.Logger
	repo          *Repository
	retentionDays int
	pruneInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewService(repo *Repository, retentionDays int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Service{
		logger:        logger,
		repo:          repo,
		retentionDays: retentionDays,
		pruneInterval: DefaultPruneInterval,
		stopCh:        make(chan struct{}),
	}
}

// Record diffs two state snapshots and writes one transition row per changed
// field. Track metadata and timestamps are not logged, only the control-plane
// fields worth auditing.
func (s *Service) Record(deviceID string, previous, current state.DeviceState, at time.Time) {
	for _, d := range diffStates(previous, current) {
		if _, err := s.repo.Insert(deviceID, d.field, d.oldValue, d.newValue, at); err != nil {
			s.logger.Printf("history: recording %s change for %s failed: %v", d.field, deviceID, err)
		}
	}
}

// Query retrieves transitions with clamped paging.
func (s *Service) Query(filters QueryFilters) ([]Transition, int, bool, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultQueryLimit
	}
	if filters.Limit > MaxQueryLimit {
		filters.Limit = MaxQueryLimit
	}
	transitions, total, err := s.repo.Query(filters)
	if err != nil {
		return nil, 0, false, fmt.Errorf("query state transitions: %w", err)
	}
	hasMore := filters.Offset+len(transitions) < total
	return transitions, total, hasMore, nil
}

// StartPruneJob runs an immediate prune, then prunes daily until stopped.
func (s *Service) StartPruneJob() {
	s.wg.Add(1)
	go s.runPruneLoop()
}

// StopPruneJob stops the background prune job and waits for it to exit.
func (s *Service) StopPruneJob() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Service) runPruneLoop() {
	defer s.wg.Done()

	s.pruneOnce()

	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pruneOnce()
		}
	}
}

func (s *Service) pruneOnce() {
	count, err := s.repo.Prune(s.retentionDays)
	if err != nil {
		s.logger.Printf("history: prune failed: %v", err)
		return
	}
	if count > 0 {
		s.logger.Printf("history: pruned %d transitions older than %d days", count, s.retentionDays)
	}
}

type fieldDiff struct {
	field    string
	oldValue string
	newValue string
}

func diffStates(prev, next state.DeviceState) []fieldDiff {
	var diffs []fieldDiff
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			diffs = append(diffs, fieldDiff{field: field, oldValue: oldValue, newValue: newValue})
		}
	}
	add("power", string(prev.Power), string(next.Power))
	add("playback", string(prev.Playback), string(next.Playback))
	add("source", prev.Source, next.Source)
	add("volume", volumeString(prev.Volume), volumeString(next.Volume))
	add("muted", strconv.FormatBool(prev.Muted), strconv.FormatBool(next.Muted))
	add("repeat", string(prev.Repeat), string(next.Repeat))
	add("shuffle", strconv.FormatBool(prev.Shuffle), strconv.FormatBool(next.Shuffle))
	add("reachable", strconv.FormatBool(prev.Reachable), strconv.FormatBool(next.Reachable))
	return diffs
}

func volumeString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
