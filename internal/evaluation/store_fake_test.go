package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vannesschia/rushboard/internal/domain"
)

// fakeStore is an in-memory domain.EvaluationStore with transactional
// semantics: mutations made inside InTx are rolled back when fn errors, and
// concurrent InTx calls serialize on one mutex.
type fakeStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]domain.Candidate
	reactions  map[pairKey]domain.ReactionType
	stars      map[pairKey]domain.Star
}

type pairKey struct {
	candidateID uuid.UUID
	reviewerID  uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates: make(map[uuid.UUID]domain.Candidate),
		reactions:  make(map[pairKey]domain.ReactionType),
		stars:      make(map[pairKey]domain.Star),
	}
}

func (f *fakeStore) addCandidate(c domain.Candidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[c.ID] = c
}

func (f *fakeStore) candidate(id uuid.UUID) domain.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates[id]
}

func (f *fakeStore) reactionRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reactions)
}

func (f *fakeStore) starRows(reviewerID uuid.UUID) []domain.Star {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stars []domain.Star
	for _, st := range f.stars {
		if st.ReviewerID == reviewerID {
			stars = append(stars, st)
		}
	}
	return stars
}

func (f *fakeStore) GetCandidate(_ context.Context, candidateID uuid.UUID) (*domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return nil, domain.ErrCandidateNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListCandidates(_ context.Context, filter domain.CandidateFilter) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []domain.Candidate
	for _, c := range f.candidates {
		if filter.CutStatus != "" && c.CutStatus != filter.CutStatus {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func (f *fakeStore) ListReactionsByReviewer(_ context.Context, reviewerID uuid.UUID) ([]domain.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reactions []domain.Reaction
	for key, t := range f.reactions {
		if key.reviewerID == reviewerID {
			reactions = append(reactions, domain.Reaction{
				CandidateID: key.candidateID,
				ReviewerID:  key.reviewerID,
				Type:        t,
			})
		}
	}
	return reactions, nil
}

func (f *fakeStore) ListStarsByReviewer(_ context.Context, reviewerID uuid.UUID) ([]domain.Star, error) {
	return f.starRows(reviewerID), nil
}

func (f *fakeStore) InTx(_ context.Context, fn func(domain.EvaluationTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.snapshot()
	if err := fn(&fakeTx{store: f}); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

type fakeState struct {
	candidates map[uuid.UUID]domain.Candidate
	reactions  map[pairKey]domain.ReactionType
	stars      map[pairKey]domain.Star
}

func (f *fakeStore) snapshot() fakeState {
	s := fakeState{
		candidates: make(map[uuid.UUID]domain.Candidate, len(f.candidates)),
		reactions:  make(map[pairKey]domain.ReactionType, len(f.reactions)),
		stars:      make(map[pairKey]domain.Star, len(f.stars)),
	}
	for k, v := range f.candidates {
		s.candidates[k] = v
	}
	for k, v := range f.reactions {
		s.reactions[k] = v
	}
	for k, v := range f.stars {
		s.stars[k] = v
	}
	return s
}

func (f *fakeStore) restore(s fakeState) {
	f.candidates = s.candidates
	f.reactions = s.reactions
	f.stars = s.stars
}

// fakeTx mutates the store directly; InTx holds the store lock for the whole
// transaction and restores a snapshot on error.
type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetCandidateForUpdate(_ context.Context, candidateID uuid.UUID) (*domain.Candidate, error) {
	c, ok := t.store.candidates[candidateID]
	if !ok {
		return nil, domain.ErrCandidateNotFound
	}
	return &c, nil
}

func (t *fakeTx) LockReviewer(_ context.Context, _ uuid.UUID) error {
	// InTx already serializes all transactions.
	return nil
}

func (t *fakeTx) GetReaction(_ context.Context, candidateID, reviewerID uuid.UUID) (domain.ReactionType, error) {
	if reactionType, ok := t.store.reactions[pairKey{candidateID, reviewerID}]; ok {
		return reactionType, nil
	}
	return domain.ReactionNone, nil
}

func (t *fakeTx) UpsertReaction(_ context.Context, candidateID, reviewerID uuid.UUID, reactionType domain.ReactionType) error {
	t.store.reactions[pairKey{candidateID, reviewerID}] = reactionType
	return nil
}

func (t *fakeTx) DeleteReaction(_ context.Context, candidateID, reviewerID uuid.UUID) error {
	delete(t.store.reactions, pairKey{candidateID, reviewerID})
	return nil
}

func (t *fakeTx) AddReactionCounts(_ context.Context, candidateID uuid.UUID, likeDelta, dislikeDelta int) (int32, int32, error) {
	c, ok := t.store.candidates[candidateID]
	if !ok {
		return 0, 0, domain.ErrCandidateNotFound
	}
	c.LikeCount = clamp(c.LikeCount, likeDelta)
	c.DislikeCount = clamp(c.DislikeCount, dislikeDelta)
	t.store.candidates[candidateID] = c
	return c.LikeCount, c.DislikeCount, nil
}

func (t *fakeTx) ListStars(_ context.Context, reviewerID uuid.UUID) ([]domain.Star, error) {
	var stars []domain.Star
	for _, st := range t.store.stars {
		if st.ReviewerID == reviewerID {
			stars = append(stars, st)
		}
	}
	return stars, nil
}

func (t *fakeTx) InsertStar(_ context.Context, star domain.Star) error {
	key := pairKey{star.CandidateID, star.ReviewerID}
	if _, ok := t.store.stars[key]; ok {
		return fmt.Errorf("duplicate star for candidate %s", star.CandidateID)
	}
	// Mirror the store's UNIQUE (reviewer_id, slot) constraint.
	for _, existing := range t.store.stars {
		if existing.ReviewerID == star.ReviewerID && existing.Slot == star.Slot {
			return fmt.Errorf("slot %d already occupied for reviewer %s", star.Slot, star.ReviewerID)
		}
	}
	t.store.stars[key] = star
	return nil
}

func (t *fakeTx) DeleteStar(_ context.Context, candidateID, reviewerID uuid.UUID) (bool, error) {
	key := pairKey{candidateID, reviewerID}
	if _, ok := t.store.stars[key]; !ok {
		return false, nil
	}
	delete(t.store.stars, key)
	return true, nil
}

func (t *fakeTx) AddStarCount(_ context.Context, candidateID uuid.UUID, delta int) (int32, error) {
	c, ok := t.store.candidates[candidateID]
	if !ok {
		return 0, domain.ErrCandidateNotFound
	}
	c.StarCount = clamp(c.StarCount, delta)
	t.store.candidates[candidateID] = c
	return c.StarCount, nil
}

func clamp(count int32, delta int) int32 {
	result := count + int32(delta)
	if result < 0 {
		return 0
	}
	return result
}

func newTestCandidate(likeCount, dislikeCount, starCount int32) domain.Candidate {
	return domain.Candidate{
		ID:           uuid.New(),
		FullName:     "Test Candidate",
		CutStatus:    domain.CutStatusInRush,
		LikeCount:    likeCount,
		DislikeCount: dislikeCount,
		StarCount:    starCount,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
