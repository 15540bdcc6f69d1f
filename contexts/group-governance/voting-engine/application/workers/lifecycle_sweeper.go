package workers

import (
	"context"
	"log/slog"
	"time"

	application "chamahub/contexts/group-governance/voting-engine/application"
	"chamahub/contexts/group-governance/voting-engine/application/commands"
	"chamahub/contexts/group-governance/voting-engine/ports"
)

// LifecycleSweeper drives time-based vote transitions (DRAFT to ACTIVE,
// ACTIVE to CLOSED) from a periodic tick. Every transition goes through the
// repository compare-and-set, so any number of concurrent sweepers close a
// vote exactly once.
type LifecycleSweeper struct {
	Votes     ports.VoteRepository
	UseCase   commands.VoteUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce advances every vote that is due a transition at the current time.
// It keeps going past individual failures so one stuck vote cannot stall the
// whole sweep, and reports the first error after the batch completes.
func (s LifecycleSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	due, err := s.Votes.ListVotesDueTransition(ctx, now, limit)
	if err != nil {
		logger.Error("lifecycle sweep list failed",
			"event", "governance_sweep_list_failed",
			"module", "group-governance/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(due) == 0 {
		return nil
	}

	var firstErr error
	advanced := 0
	for _, vote := range due {
		if _, err := s.UseCase.AdvanceLifecycle(ctx, vote.VoteID); err != nil {
			logger.Error("lifecycle advance failed",
				"event", "governance_sweep_advance_failed",
				"module", "group-governance/voting-engine",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		advanced++
	}

	logger.Info("lifecycle sweep completed",
		"event", "governance_sweep_completed",
		"module", "group-governance/voting-engine",
		"layer", "worker",
		"due_count", len(due),
		"advanced_count", advanced,
	)
	return firstErr
}
