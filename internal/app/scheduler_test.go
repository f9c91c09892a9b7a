package app

import (
	"context"
	"testing"
	"time"

	"playmap/internal/playmap"
	"playmap/internal/testutil"
)

func newTestCoordinator(t *testing.T) *playmap.Coordinator {
	t.Helper()

	clock := testutil.FixedClock()
	logger := playmap.NewNopLogger()
	persistence := testutil.NewFakePersistence()
	store := playmap.NewCatalogStore(persistence, clock, testutil.NewStubIDGenerator(), logger, playmap.StoreOptions{AutoSaveDelay: -1})
	t.Cleanup(func() {
		store.Close()
	})
	if err := store.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	tracker := playmap.NewPhotoTracker(testutil.NewMockPhotoFilesystem(), "/photos", "/thumbs", clock, logger)
	return playmap.NewCoordinator(store, tracker, persistence, clock, logger, time.Minute)
}

func TestNewMaintenanceScheduler_InvalidSchedule(t *testing.T) {
	for _, schedule := range []string{"", "every hour", "61 * * * *"} {
		t.Run(schedule, func(t *testing.T) {
			if _, err := NewMaintenanceScheduler(schedule, newTestCoordinator(t), playmap.NewNopLogger()); err == nil {
				t.Errorf("NewMaintenanceScheduler(%q) succeeded", schedule)
			}
		})
	}
}

func TestMaintenanceScheduler_Runs(t *testing.T) {
	s, err := NewMaintenanceScheduler("@every 1s", newTestCoordinator(t), playmap.NewNopLogger())
	if err != nil {
		t.Fatalf("NewMaintenanceScheduler() error = %v", err)
	}

	if _, ok := s.LastReport(); ok {
		t.Error("LastReport() ok before any run")
	}

	s.Start()
	defer s.Stop()

	if s.Next().IsZero() {
		t.Error("Next() is zero after Start")
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Runs() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if s.Runs() == 0 {
		t.Fatal("maintenance did not run")
	}
	report, ok := s.LastReport()
	if !ok || !report.Saved {
		t.Errorf("LastReport() = %+v, %v, want a saving pass", report, ok)
	}
}

func TestMaintenanceScheduler_StopIsIdempotent(t *testing.T) {
	s, err := NewMaintenanceScheduler("0 3 * * *", newTestCoordinator(t), playmap.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
	s.Stop()

	if s.Runs() != 0 {
		t.Errorf("Runs() = %d, want 0", s.Runs())
	}
}
