package service

import (
	"context"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"
)

// DefaultSweepInterval is how often elapsed operations are finalized. The
// device stops the pump by its own timer; the sweeper only brings the records
// in line.
const DefaultSweepInterval = 10 * time.Second

// Sweeper completes pump operations whose requested duration has elapsed.
type Sweeper struct {
	pumpOps repository.PumpOps
	log     *logger.Logger
}

func NewSweeper(pumpOps repository.PumpOps, log *logger.Logger) *Sweeper {
	return &Sweeper{pumpOps: pumpOps, log: log}
}

// Run ticks until ctx is cancelled. One failed sweep never stops the loop.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && s.log != nil {
				s.log.Errorw("pump_sweep_failed", "err", err)
			}
		}
	}
}

// Sweep finalizes every active operation whose projected end has passed.
// The terminal-status guard in Finalize makes a concurrent manual stop win
// harmlessly.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	elapsed, err := s.pumpOps.ListElapsedActive(ctx, now)
	if err != nil {
		return err
	}
	for _, op := range elapsed {
		end := op.ExpectedEnd()
		if err := s.pumpOps.Finalize(ctx, op.ID, models.OpStatusCompleted, "", end); err != nil {
			if s.log != nil {
				s.log.Errorw("pump_complete_failed", "operation", op.ID, "err", err)
			}
			continue
		}
		if s.log != nil {
			s.log.Infow("pump_operation_completed", "operation", op.ID, "greenhouse", op.GreenhouseID)
		}
	}
	return nil
}
