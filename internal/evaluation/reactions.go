package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/vannesschia/rushboard/internal/domain"
	"github.com/vannesschia/rushboard/internal/metrics"
)

// ReactionService computes and persists reaction-state transitions and their
// effect on the per-candidate like/dislike counters.
type ReactionService struct {
	store domain.EvaluationStore
}

// NewReactionService creates a ReactionService over the given store.
func NewReactionService(store domain.EvaluationStore) *ReactionService {
	return &ReactionService{store: store}
}

// SetReaction moves the reviewer's reaction on the candidate to newType.
// Setting the already-current type is an idempotent no-op; setting
// ReactionNone deletes the reaction row. The row mutation and the counter
// update commit as one transaction, with the candidate row locked so
// concurrent calls for the same candidate serialize instead of losing
// updates.
func (s *ReactionService) SetReaction(ctx context.Context, candidateID, reviewerID uuid.UUID, newType domain.ReactionType) (domain.ReactionResult, error) {
	var (
		result  domain.ReactionResult
		oldType domain.ReactionType
		changed bool
	)

	err := s.store.InTx(ctx, func(tx domain.EvaluationTx) error {
		candidate, err := tx.GetCandidateForUpdate(ctx, candidateID)
		if err != nil {
			return err
		}

		oldType, err = tx.GetReaction(ctx, candidateID, reviewerID)
		if err != nil {
			return err
		}

		if oldType == newType {
			result = domain.ReactionResult{
				Type:         oldType,
				LikeCount:    candidate.LikeCount,
				DislikeCount: candidate.DislikeCount,
			}
			return nil
		}

		if newType == domain.ReactionNone {
			if err := tx.DeleteReaction(ctx, candidateID, reviewerID); err != nil {
				return err
			}
		} else {
			if err := tx.UpsertReaction(ctx, candidateID, reviewerID, newType); err != nil {
				return err
			}
		}

		likeDelta, dislikeDelta := reactionDeltas(oldType, newType)
		likeCount, dislikeCount, err := tx.AddReactionCounts(ctx, candidateID, likeDelta, dislikeDelta)
		if err != nil {
			return err
		}

		changed = true
		result = domain.ReactionResult{
			Type:         newType,
			LikeCount:    likeCount,
			DislikeCount: dislikeCount,
		}
		return nil
	})
	if err != nil {
		return domain.ReactionResult{}, err
	}

	if changed {
		metrics.ReactionTransitionsTotal.WithLabelValues(string(oldType), string(newType)).Inc()
	}
	return result, nil
}

// reactionDeltas maps a state transition to the counter deltas it implies.
// A like<->dislike transition touches both counters in the same call.
func reactionDeltas(oldType, newType domain.ReactionType) (likeDelta, dislikeDelta int) {
	switch oldType {
	case domain.ReactionLike:
		likeDelta--
	case domain.ReactionDislike:
		dislikeDelta--
	}
	switch newType {
	case domain.ReactionLike:
		likeDelta++
	case domain.ReactionDislike:
		dislikeDelta++
	}
	return likeDelta, dislikeDelta
}
