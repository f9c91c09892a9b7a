package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"playmap/internal/playmap"
)

// MaintenanceScheduler runs Coordinator.RunMaintenance on a cron schedule.
// A run that is still in progress when the next one is due causes that next
// run to be skipped.
type MaintenanceScheduler struct {
	cron   *cron.Cron
	coord  *playmap.Coordinator
	logger playmap.Logger
	entry  cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	runs    int
	last    playmap.MaintenanceReport
	stopped bool
}

// NewMaintenanceScheduler parses schedule (standard five-field cron or a
// descriptor such as "@every 1h") and registers the maintenance job.
func NewMaintenanceScheduler(schedule string, coord *playmap.Coordinator, logger playmap.Logger) (*MaintenanceScheduler, error) {
	cl := cronLogger{l: logger}
	s := &MaintenanceScheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		coord:  coord,
		logger: logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	id, err := s.cron.AddFunc(schedule, s.run)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the job in the background.
func (s *MaintenanceScheduler) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduler started", "next", s.Next())
}

// Stop cancels a running job's context and waits for it to return.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("maintenance scheduler stopped")
}

// Next returns when the job runs next. It is zero before Start.
func (s *MaintenanceScheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Runs returns how many maintenance passes have completed.
func (s *MaintenanceScheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// LastReport returns the report of the most recent pass. ok is false until
// a pass has completed.
func (s *MaintenanceScheduler) LastReport() (report playmap.MaintenanceReport, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.runs > 0
}

func (s *MaintenanceScheduler) run() {
	report := s.coord.RunMaintenance(s.ctx)

	s.mu.Lock()
	s.runs++
	s.last = report
	s.mu.Unlock()
}

// cronLogger routes the cron library's logging through playmap.Logger.
type cronLogger struct {
	l playmap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
