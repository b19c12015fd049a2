package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexofit/gym-api/internal/models"
)

// Default scheduling parameters
const (
	DefaultPollInterval = 30 * time.Second
	DefaultPageSize     = 50
)

// SchedulerConfig holds the polling cadence and page size
type SchedulerConfig struct {
	Interval time.Duration
	PageSize int
}

// Scheduler drives one polling tick per interval for every branch with
// active access settings. Branch ticks run concurrently with each other but
// are serialized per branch, so offsets advance in order. A single scheduler
// instance owns all branches; multi-instance deployments must shard branches
// externally to avoid duplicate ticks.
type Scheduler struct {
	store      *Store
	tokens     *TokenManager
	api        VendorAPI
	classifier *Classifier
	interval   time.Duration
	pageSize   int
	log        *logrus.Logger

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[uint]bool

	now func() time.Time
}

func NewScheduler(store *Store, tokens *TokenManager, api VendorAPI, cfg SchedulerConfig, logger *logrus.Logger) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Scheduler{
		store:      store,
		tokens:     tokens,
		api:        api,
		classifier: NewClassifier(),
		interval:   interval,
		pageSize:   pageSize,
		log:        logger,
		done:       make(chan struct{}),
		inflight:   make(map[uint]bool),
		now:        time.Now,
	}
}

// Start begins the recurring polling loop. It runs an immediate pass on
// startup, then repeats on the configured interval until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.log.WithField("interval", s.interval).Info("Access polling scheduler started")
}

// Stop cancels the loop and waits for any in-flight branch ticks to finish
// or time out.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.tickAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickAll(ctx)
		}
	}
}

// tickAll fans one tick out to every active branch. Branches whose previous
// tick is still in flight are skipped this round.
func (s *Scheduler) tickAll(ctx context.Context) {
	settings, err := s.store.ActiveSettings()
	if err != nil {
		s.log.WithError(err).Error("Failed to list branches for polling")
		return
	}

	for i := range settings {
		branchID := settings[i].BranchID
		if !s.acquire(branchID) {
			s.log.WithField("branch_id", branchID).Debug("Previous tick still in flight, skipping")
			continue
		}
		s.wg.Add(1)
		go func(branchID uint) {
			defer s.wg.Done()
			defer s.release(branchID)
			if err := s.tick(ctx, branchID); err != nil {
				s.log.WithFields(logrus.Fields{
					"branch_id": branchID,
					"error":     err.Error(),
				}).Error("Branch poll tick failed")
			}
		}(branchID)
	}
}

// RunOnce executes a single tick for one branch, serialized against the
// scheduled ticks. Used by the manual-trigger endpoint and tests.
func (s *Scheduler) RunOnce(ctx context.Context, branchID uint) error {
	if !s.acquire(branchID) {
		return fmt.Errorf("branch %d: tick already in flight", branchID)
	}
	defer s.release(branchID)
	return s.tick(ctx, branchID)
}

func (s *Scheduler) acquire(branchID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[branchID] {
		return false
	}
	s.inflight[branchID] = true
	return true
}

func (s *Scheduler) release(branchID uint) {
	s.mu.Lock()
	delete(s.inflight, branchID)
	s.mu.Unlock()
}

// tick runs the ensure-subscription / poll / commit / acknowledge state
// machine for one branch. Any step failure logs an error entry, marks the
// branch failed and leaves retry to the next scheduled tick.
func (s *Scheduler) tick(ctx context.Context, branchID uint) error {
	settings, err := s.store.SettingsForBranch(branchID)
	if err != nil {
		return s.fail(ctx, branchID, "load settings", err)
	}

	token, err := s.tokens.GetToken(ctx, settings)
	if err != nil {
		return s.fail(ctx, branchID, "fetch token", err)
	}

	subscriptionID := settings.SubscriptionID
	if subscriptionID == "" {
		subscriptionID, err = s.api.Subscribe(ctx, settings.BaseURL, token, []int{DoorAccessTopic})
		if err != nil {
			return s.fail(ctx, branchID, "create subscription", err)
		}
		if err := s.store.SaveSubscription(branchID, subscriptionID); err != nil {
			return s.fail(ctx, branchID, "persist subscription", err)
		}
	}

	messages, nextOffset, err := s.api.PollMessages(ctx, settings.BaseURL, token, subscriptionID, settings.MessageOffset, s.pageSize)
	if err != nil {
		return s.fail(ctx, branchID, "poll messages", err)
	}

	if len(messages) == 0 {
		if err := s.store.MarkSynced(branchID, s.now().UTC()); err != nil {
			return s.fail(ctx, branchID, "record sync", err)
		}
		return nil
	}

	events := make([]models.AccessEvent, len(messages))
	for i, msg := range messages {
		events[i] = s.classifier.Normalize(branchID, msg)
	}

	// All events of the page and the offset advance commit atomically, so a
	// partial write can never be followed by an offset that skips events.
	if err := s.store.CommitPage(branchID, events, nextOffset, s.now().UTC()); err != nil {
		return s.fail(ctx, branchID, "commit events", err)
	}

	// Best-effort vendor-side cleanup. The local offset already advanced and
	// the uniqueness constraint makes any redelivery idempotent, so an ack
	// failure is only logged.
	if err := s.api.AckOffset(ctx, settings.BaseURL, token, subscriptionID, nextOffset); err != nil {
		s.log.WithFields(logrus.Fields{
			"branch_id": branchID,
			"offset":    nextOffset,
			"error":     err.Error(),
		}).Warn("Offset acknowledgment failed, vendor may redeliver")
	}

	entry := &models.SyncLogEntry{
		BranchID:   branchID,
		Level:      models.SyncLogLevelInfo,
		Message:    fmt.Sprintf("committed %d access events", len(events)),
		Detail:     fmt.Sprintf("offset advanced to %q", nextOffset),
		Status:     models.SyncLogStatusSuccess,
		EntityType: "poll",
	}
	if err := s.store.AppendLog(entry); err != nil {
		s.log.WithError(err).Warn("Failed to append sync log entry")
	}
	return nil
}

// fail records a tick failure unless it was caused by shutdown cancellation;
// stopping the scheduler must not leave branches marked failed.
func (s *Scheduler) fail(ctx context.Context, branchID uint, step string, err error) error {
	if ctx.Err() != nil {
		return err
	}

	entry := &models.SyncLogEntry{
		BranchID:   branchID,
		Level:      models.SyncLogLevelError,
		Message:    fmt.Sprintf("poll tick failed at %s", step),
		Detail:     err.Error(),
		Status:     Classify(err),
		EntityType: "poll",
	}
	if logErr := s.store.AppendLog(entry); logErr != nil {
		s.log.WithError(logErr).Warn("Failed to append sync log entry")
	}
	if markErr := s.store.MarkSyncFailed(branchID); markErr != nil {
		s.log.WithError(markErr).Warn("Failed to mark branch sync status")
	}
	return err
}
