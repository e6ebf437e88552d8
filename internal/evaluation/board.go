package evaluation

import (
	"context"

	"github.com/google/uuid"
	"github.com/vannesschia/rushboard/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Board assembles the candidate list the portal renders: every candidate's
// counters plus the calling reviewer's own reaction and star state.
type Board struct {
	store domain.EvaluationStore
}

// NewBoard creates a Board over the given store.
func NewBoard(store domain.EvaluationStore) *Board {
	return &Board{store: store}
}

// List fetches candidates, the reviewer's reactions, and the reviewer's
// stars concurrently and joins them per candidate.
func (b *Board) List(ctx context.Context, reviewerID uuid.UUID, filter domain.CandidateFilter) ([]domain.BoardEntry, error) {
	var (
		candidates []domain.Candidate
		reactions  []domain.Reaction
		stars      []domain.Star
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = b.store.ListCandidates(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		reactions, err = b.store.ListReactionsByReviewer(gctx, reviewerID)
		return err
	})
	g.Go(func() error {
		var err error
		stars, err = b.store.ListStarsByReviewer(gctx, reviewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reactionByCandidate := make(map[uuid.UUID]domain.ReactionType, len(reactions))
	for _, r := range reactions {
		reactionByCandidate[r.CandidateID] = r.Type
	}
	starredCandidates := make(map[uuid.UUID]struct{}, len(stars))
	for _, st := range stars {
		starredCandidates[st.CandidateID] = struct{}{}
	}

	entries := make([]domain.BoardEntry, len(candidates))
	for i, c := range candidates {
		entry := domain.BoardEntry{Candidate: c, ReviewerReaction: domain.ReactionNone}
		if t, ok := reactionByCandidate[c.ID]; ok {
			entry.ReviewerReaction = t
		}
		if _, ok := starredCandidates[c.ID]; ok {
			entry.ReviewerStarred = true
		}
		entries[i] = entry
	}
	return entries, nil
}
