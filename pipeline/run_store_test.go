package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type mockTimeProvider struct {
	currentTime time.Time
	mutex       sync.Mutex
}

func (mtp *mockTimeProvider) Now() time.Time {
	mtp.mutex.Lock()
	defer mtp.mutex.Unlock()
	return mtp.currentTime
}

func (mtp *mockTimeProvider) Add(d time.Duration) {
	mtp.mutex.Lock()
	mtp.currentTime = mtp.currentTime.Add(d)
	mtp.mutex.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConcurrentOperations(t *testing.T) {
	mtp := &mockTimeProvider{currentTime: time.Now()}
	timeProvider = mtp
	defer func() { timeProvider = systemClock{} }()

	store := NewRunStore(testLogger())
	threshold := 5 * time.Minute
	cleanupInterval := 100 * time.Millisecond

	store.StartCleanup(threshold, cleanupInterval)
	defer store.StopCleanup()

	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addRandomRun(store, mtp.Now())
		}()
	}

	for i := 0; i < 10; i++ {
		mtp.Add(cleanupInterval)
		time.Sleep(10 * time.Millisecond)

		for j := 0; j < 100; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				addRandomRun(store, mtp.Now())
			}()
		}
	}

	wg.Wait()

	mtp.Add(threshold + time.Second)
	store.performCleanup(threshold)

	store.RLock()
	defer store.RUnlock()
	for _, run := range store.runs {
		completedAt, _ := time.Parse(time.RFC3339, run.CompletedAt)
		if mtp.Now().Sub(completedAt) > threshold {
			t.Errorf("Found expired run that should have been cleaned up: %v", run)
		}
	}
}

func TestCleanupKeepsRunningRuns(t *testing.T) {
	mtp := &mockTimeProvider{currentTime: time.Now()}
	timeProvider = mtp
	defer func() { timeProvider = systemClock{} }()

	store := NewRunStore(testLogger())
	store.Add(&RunRecord{RunID: "running", Status: StatusStarted, SubmittedAt: mtp.Now().Format(time.RFC3339)})
	store.Add(&RunRecord{RunID: "done", Status: StatusCompleted, CompletedAt: mtp.Now().Format(time.RFC3339)})

	mtp.Add(time.Hour)
	store.performCleanup(time.Minute)

	if _, ok := store.Get("running"); !ok {
		t.Error("running run must not expire")
	}
	if _, ok := store.Get("done"); ok {
		t.Error("completed run should have expired")
	}
}

func TestUpdateAndGetReturnCopies(t *testing.T) {
	store := NewRunStore(testLogger())
	store.Add(&RunRecord{RunID: "a", Status: StatusStarted})

	got, _ := store.Get("a")
	got.Status = StatusFailed

	if rec, _ := store.Get("a"); rec.Status != StatusStarted {
		t.Errorf("Get must return a copy, status is %s", rec.Status)
	}
	if !store.Update("a", func(r *RunRecord) { r.Status = StatusCompleted }) {
		t.Fatal("Update on existing run returned false")
	}
	if rec, _ := store.Get("a"); rec.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", rec.Status)
	}
	if store.Update("missing", func(r *RunRecord) {}) {
		t.Error("Update on missing run returned true")
	}
}

func addRandomRun(store *RunStore, now time.Time) {
	runID := fmt.Sprintf("run-%d", rand.Int())
	completedAt := now.Add(-time.Duration(rand.Intn(10)) * time.Minute)
	store.Add(&RunRecord{
		RunID:       runID,
		Status:      StatusCompleted,
		SubmittedAt: completedAt.Add(-time.Minute).Format(time.RFC3339),
		CompletedAt: completedAt.Format(time.RFC3339),
	})
}
