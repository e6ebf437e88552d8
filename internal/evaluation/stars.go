package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/vannesschia/rushboard/internal/domain"
	"github.com/vannesschia/rushboard/internal/metrics"
)

// StarAllocator computes and persists star-state transitions under the
// global per-reviewer capacity of domain.MaxStarsPerReviewer slots.
type StarAllocator struct {
	store domain.EvaluationStore
	clock clockwork.Clock
}

// NewStarAllocator creates a StarAllocator over the given store.
func NewStarAllocator(store domain.EvaluationStore, clock clockwork.Clock) *StarAllocator {
	return &StarAllocator{store: store, clock: clock}
}

// star operation outcomes, reported via metrics
const (
	starOutcomeStarred          = "starred"
	starOutcomeUnstarred        = "unstarred"
	starOutcomeCapacityRejected = "capacity_rejected"
	starOutcomeNoop             = "noop"
)

// SetStar stars or unstars the candidate for the reviewer. Starring assigns
// the lowest free slot (first-fit over {1..3}); when all slots are occupied
// the request is a quiet capacity-rejected no-op reporting starred=false.
// Unstarring a candidate that was never starred is a no-op. The reviewer's
// whole star set is locked for the duration of the transaction, so the
// global cap holds under any interleaving.
func (s *StarAllocator) SetStar(ctx context.Context, candidateID, reviewerID uuid.UUID, starred bool) (domain.StarResult, error) {
	var (
		result  domain.StarResult
		outcome string
	)

	err := s.store.InTx(ctx, func(tx domain.EvaluationTx) error {
		if err := tx.LockReviewer(ctx, reviewerID); err != nil {
			return err
		}

		candidate, err := tx.GetCandidateForUpdate(ctx, candidateID)
		if err != nil {
			return err
		}

		if starred {
			result, outcome, err = s.star(ctx, tx, candidate, reviewerID)
		} else {
			result, outcome, err = s.unstar(ctx, tx, candidate, reviewerID)
		}
		return err
	})
	if err != nil {
		return domain.StarResult{}, err
	}

	metrics.StarOpsTotal.WithLabelValues(outcome).Inc()
	return result, nil
}

func (s *StarAllocator) star(ctx context.Context, tx domain.EvaluationTx, candidate *domain.Candidate, reviewerID uuid.UUID) (domain.StarResult, string, error) {
	stars, err := tx.ListStars(ctx, reviewerID)
	if err != nil {
		return domain.StarResult{}, "", err
	}

	for _, star := range stars {
		if star.CandidateID == candidate.ID {
			return domain.StarResult{Starred: true, StarCount: candidate.StarCount}, starOutcomeNoop, nil
		}
	}

	slot, ok := lowestFreeSlot(stars)
	if !ok {
		return domain.StarResult{Starred: false, StarCount: candidate.StarCount}, starOutcomeCapacityRejected, nil
	}

	star := domain.Star{
		CandidateID: candidate.ID,
		ReviewerID:  reviewerID,
		Slot:        slot,
		CreatedAt:   s.clock.Now(),
	}
	if err := tx.InsertStar(ctx, star); err != nil {
		return domain.StarResult{}, "", err
	}

	starCount, err := tx.AddStarCount(ctx, candidate.ID, 1)
	if err != nil {
		return domain.StarResult{}, "", err
	}
	return domain.StarResult{Starred: true, StarCount: starCount}, starOutcomeStarred, nil
}

func (s *StarAllocator) unstar(ctx context.Context, tx domain.EvaluationTx, candidate *domain.Candidate, reviewerID uuid.UUID) (domain.StarResult, string, error) {
	deleted, err := tx.DeleteStar(ctx, candidate.ID, reviewerID)
	if err != nil {
		return domain.StarResult{}, "", err
	}
	if !deleted {
		return domain.StarResult{Starred: false, StarCount: candidate.StarCount}, starOutcomeNoop, nil
	}

	starCount, err := tx.AddStarCount(ctx, candidate.ID, -1)
	if err != nil {
		return domain.StarResult{}, "", err
	}
	return domain.StarResult{Starred: false, StarCount: starCount}, starOutcomeUnstarred, nil
}

// lowestFreeSlot returns the first unused slot in {1..MaxStarsPerReviewer},
// so a freed slot is deterministically reused before higher-numbered ones.
func lowestFreeSlot(stars []domain.Star) (int16, bool) {
	var occupied [domain.MaxStarsPerReviewer + 1]bool
	for _, star := range stars {
		if star.Slot >= 1 && star.Slot <= domain.MaxStarsPerReviewer {
			occupied[star.Slot] = true
		}
	}
	for slot := int16(1); slot <= domain.MaxStarsPerReviewer; slot++ {
		if !occupied[slot] {
			return slot, true
		}
	}
	return 0, false
}
