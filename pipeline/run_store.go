package pipeline

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/serisow/narrador/narration_type"
)

type RunStatus string

const (
	StatusStarted   RunStatus = "started"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Clock stamps run records. Tests replace timeProvider to move time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

var timeProvider Clock = systemClock{}

// RunRecord is the externally visible state of one narration run.
type RunRecord struct {
	RunID       string               `json:"run_id"`
	Status      RunStatus            `json:"status"`
	Stage       narration_type.State `json:"stage"`
	Detail      string               `json:"detail,omitempty"`
	Voice       string               `json:"voice"`
	UseStock    bool                 `json:"use_stock"`
	OutputFile  string               `json:"output_file,omitempty"`
	Message     string               `json:"message,omitempty"`
	Segments    int                  `json:"segments"`
	Duration    float64              `json:"duration"`
	Diagnostics []string             `json:"diagnostics,omitempty"`
	SubmittedAt string               `json:"submitted_at"`
	CompletedAt string               `json:"completed_at,omitempty"`
}

// RunStore keeps run records in memory until they expire.
type RunStore struct {
	sync.RWMutex
	logger        *slog.Logger
	runs          map[string]*RunRecord
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

func NewRunStore(logger *slog.Logger) *RunStore {
	return &RunStore{
		logger: logger,
		runs:   make(map[string]*RunRecord),
	}
}

// StartCleanup periodically removes finished runs older than threshold.
func (s *RunStore) StartCleanup(threshold time.Duration, cleanupInterval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(cleanupInterval)
	stop, ticker := s.stopCleanup, s.cleanupTicker

	go func() {
		for {
			select {
			case <-ticker.C:
				s.performCleanup(threshold)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (s *RunStore) StopCleanup() {
	if s.stopCleanup != nil {
		close(s.stopCleanup)
		s.stopCleanup = nil
	}
}

func (s *RunStore) performCleanup(threshold time.Duration) {
	now := timeProvider.Now()
	s.Lock()
	defer s.Unlock()

	for runID, run := range s.runs {
		if run.CompletedAt == "" {
			continue
		}
		completedAt, err := time.Parse(time.RFC3339, run.CompletedAt)
		if err == nil && now.Sub(completedAt) > threshold {
			delete(s.runs, runID)
			s.logger.Debug("Deleted run record due to expiration", slog.String("run_id", runID))
		}
	}
}

func (s *RunStore) Add(record *RunRecord) {
	s.Lock()
	defer s.Unlock()
	s.runs[record.RunID] = record
}

// Get returns a copy of the record.
func (s *RunStore) Get(runID string) (RunRecord, bool) {
	s.RLock()
	defer s.RUnlock()
	record, exists := s.runs[runID]
	if !exists {
		return RunRecord{}, false
	}
	return *record, true
}

// Update applies fn to the stored record under the lock.
func (s *RunStore) Update(runID string, fn func(*RunRecord)) bool {
	s.Lock()
	defer s.Unlock()
	record, exists := s.runs[runID]
	if !exists {
		return false
	}
	fn(record)
	return true
}

func (s *RunStore) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.runs)
}

// ErrRunNotFound is returned by lookups of unknown runs.
var ErrRunNotFound = errors.New("run not found")
