package worker

import (
	"context"
	"sync"
	"time"

	"transit-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sweeper reclaims seats whose holds expired without a payment outcome.
// It is a safety net, not the source of truth: the hold and confirm paths
// already treat expired holds as dead, so the sweeper only tidies rows up.
//
// Each reclaim is conditioned on the exact hold id and expiry the sweeper
// read, never on the expiry clause alone. A seat confirmed or re-held
// between the read and the write fails the condition and is left alone,
// which makes running several sweeper replicas safe.
type Sweeper struct {
	repo     *repository.Repository
	interval time.Duration
	batch    int
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewSweeper(repo *repository.Repository, cfg SweeperConfig, log *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Sweeper{
		repo:     repo,
		interval: cfg.Interval,
		batch:    cfg.BatchSize,
		log:      log.With(zap.String("worker", "sweeper")),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.log.Info("Sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batch),
	)
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("Sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one reclaim cycle and returns the number of slots reclaimed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := time.Now()

	slots, err := s.repo.SeatSlot.FindExpiredHeld(ctx, now, s.batch)
	if err != nil {
		s.log.Error("Failed to list expired held slots", zap.Error(err))
		return 0
	}
	if len(slots) == 0 {
		return 0
	}

	reclaimed := 0
	touchedHolds := make(map[uuid.UUID]bool)
	for _, slot := range slots {
		if slot.HoldID == nil || slot.HoldExpiresAt == nil {
			// Held slot without hold metadata should not exist.
			s.log.Error("Held slot missing hold metadata",
				zap.String("schedule_id", slot.ScheduleID.String()),
				zap.String("seat_id", slot.SeatID.String()),
			)
			continue
		}

		ok, err := s.repo.SeatSlot.ReclaimSlot(ctx, slot.ScheduleID, slot.SeatID, *slot.HoldID, *slot.HoldExpiresAt)
		if err != nil {
			// A failed row must not stop the cycle.
			s.log.Error("Failed to reclaim slot",
				zap.Error(err),
				zap.String("seat_id", slot.SeatID.String()),
			)
			continue
		}
		if !ok {
			// Lost the race to a confirm or a fresh hold. Correct outcome.
			continue
		}

		reclaimed++
		touchedHolds[*slot.HoldID] = true
	}

	for holdID := range touchedHolds {
		if _, err := s.repo.Hold.MarkExpired(ctx, holdID, now); err != nil {
			s.log.Error("Failed to mark hold expired",
				zap.Error(err),
				zap.String("hold_id", holdID.String()),
			)
		}
	}

	if reclaimed > 0 {
		s.log.Info("Sweep cycle complete",
			zap.Int("scanned", len(slots)),
			zap.Int("reclaimed", reclaimed),
			zap.Int("holds_expired", len(touchedHolds)),
		)
	}

	return reclaimed
}
