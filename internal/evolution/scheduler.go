package evolution

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
)

// Scheduler runs evolution rounds on a fixed interval.
type Scheduler struct {
	trainer  *Trainer
	interval time.Duration
	rounds   chan Result
}

// NewScheduler creates a scheduler. Results are published on Rounds when
// someone is listening and dropped otherwise.
func NewScheduler(trainer *Trainer, interval time.Duration) *Scheduler {
	return &Scheduler{trainer: trainer, interval: interval, rounds: make(chan Result, 1)}
}

// Rounds exposes completed round results.
func (s *Scheduler) Rounds() <-chan Result { return s.rounds }

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("Evolution scheduler started", logger.Fields{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			logger.Info("Evolution scheduler stopped", nil)
			return
		case <-ticker.C:
			res, err := s.trainer.Run(ctx, 0, 0)
			if err != nil {
				logger.Error("Scheduled evolution round failed", err, nil)
				continue
			}
			select {
			case s.rounds <- res:
			default:
			}
		}
	}
}
