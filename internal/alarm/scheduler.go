// Package alarm polls local record sets and fires due-time reminders at most
// once per (record, due time) pair per process lifetime. A restart re-arms
// every alarm on purpose: the firing windows bound how far back a missed
// reminder can still fire.
package alarm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Firing windows per entity type.
const (
	// NoteCatchUpWindow is how far in the past a note reminder may be and
	// still fire.
	NoteCatchUpWindow = 5 * time.Minute
	// AppointmentPreAlertWindow is how far in the future an appointment may
	// be and still fire. Pre-alerts never fire after the event has passed.
	AppointmentPreAlertWindow = 15 * time.Minute
)

// Entry is one alarm-bearing record as seen by the scheduler.
type Entry struct {
	RecordID string
	Title    string
	Body     string
	Due      time.Time
}

// Alert is the event raised toward the UI when an entry fires. It is held by
// the inbox until the user dismisses it.
type Alert struct {
	ID       string    `json:"id"`
	RecordID string    `json:"recordId"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	DueTime  time.Time `json:"dueTime"`
}

// Source lists the current alarm-bearing entries. Records without a due time
// are simply absent from the listing.
type Source func(ctx context.Context) ([]Entry, error)

// FiringPolicy decides whether an entry is due at the given instant.
type FiringPolicy interface {
	ShouldFire(now, due time.Time) bool
}

// CatchUpPolicy fires once the due time has passed, for as long as it lies
// within the window.
type CatchUpPolicy struct {
	Window time.Duration
}

func (p CatchUpPolicy) ShouldFire(now, due time.Time) bool {
	elapsed := now.Sub(due)
	return elapsed >= 0 && elapsed < p.Window
}

// PreAlertPolicy fires before the due time, once it comes within the window.
type PreAlertPolicy struct {
	Window time.Duration
}

func (p PreAlertPolicy) ShouldFire(now, due time.Time) bool {
	lead := due.Sub(now)
	return lead > 0 && lead <= p.Window
}

// Chime plays the audible cue. Failures are swallowed.
type Chime interface {
	Play() error
}

// Notifier is the system notification permission surface. Show is skipped
// silently when permission has not been granted.
type Notifier interface {
	Granted() bool
	Show(title, body string)
}

// SchedulerConfig configures one scheduler instance.
type SchedulerConfig struct {
	Name     string
	Interval time.Duration
	Source   Source
	Policy   FiringPolicy
	Chime    Chime
	Notifier Notifier
	Sink     func(Alert)
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Scheduler owns the poll loop and the in-memory fired set for one entity
// type. It is single-threaded: Run ticks sequentially, so the
// check-then-insert on the fired set needs no locking.
type Scheduler struct {
	name     string
	interval time.Duration
	source   Source
	policy   FiringPolicy
	chime    Chime
	notifier Notifier
	sink     func(Alert)
	clock    func() time.Time
	logger   *zap.Logger
	fired    map[string]struct{}
	sequence int64
}

// NewScheduler validates the configuration and constructs a Scheduler.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, errInvalidInterval
	}
	if cfg.Source == nil {
		return nil, errMissingSource
	}
	if cfg.Policy == nil {
		return nil, errMissingPolicy
	}
	if cfg.Sink == nil {
		return nil, errMissingSink
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	chime := cfg.Chime
	if chime == nil {
		chime = NopChime{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = deniedNotifier{}
	}
	return &Scheduler{
		name:     cfg.Name,
		interval: cfg.Interval,
		source:   cfg.Source,
		policy:   cfg.Policy,
		chime:    chime,
		notifier: notifier,
		sink:     cfg.Sink,
		clock:    clock,
		logger:   logger,
		fired:    make(map[string]struct{}),
	}, nil
}

// Run polls until the context is cancelled. An alert already raised is not
// retracted by cancellation.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("alarm scheduler started",
		zap.String("scheduler", s.name),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alarm scheduler stopped", zap.String("scheduler", s.name))
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	entries, err := s.source(ctx)
	if err != nil {
		s.logger.Warn("alarm source read failed",
			zap.String("scheduler", s.name),
			zap.Error(err))
		return
	}

	now := s.clock()
	for _, entry := range entries {
		if !s.policy.ShouldFire(now, entry.Due) {
			continue
		}
		key := firedKey(entry)
		if _, done := s.fired[key]; done {
			continue
		}
		s.fired[key] = struct{}{}
		s.fire(entry)
	}
}

func (s *Scheduler) fire(entry Entry) {
	if err := s.chime.Play(); err != nil {
		s.logger.Debug("alarm chime failed", zap.Error(err))
	}
	if s.notifier.Granted() {
		s.notifier.Show(entry.Title, entry.Body)
	}

	s.sequence++
	s.sink(Alert{
		ID:       alertID(s.name, s.sequence),
		RecordID: entry.RecordID,
		Title:    entry.Title,
		Body:     entry.Body,
		DueTime:  entry.Due,
	})

	s.logger.Info("alarm fired",
		zap.String("scheduler", s.name),
		zap.String("record_id", entry.RecordID),
		zap.Time("due", entry.Due))
}

// firedKey keys on (record, due time): changing a due time re-arms the record
// even though its identity is unchanged.
func firedKey(entry Entry) string {
	return entry.RecordID + "|" + entry.Due.UTC().Format(time.RFC3339Nano)
}
