package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxStarsPerReviewer is the global star capacity: a reviewer may hold at
// most this many active stars across all candidates.
const MaxStarsPerReviewer = 3

// --- Model types ---

// ReactionType is a reviewer's verdict on a candidate. ReactionNone is a
// transient input meaning "clear my reaction" — it is represented in the
// store as row absence, never as a stored value.
type ReactionType string

const (
	ReactionNone    ReactionType = "none"
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Valid reports whether t is one of the three accepted reaction inputs.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionNone, ReactionLike, ReactionDislike:
		return true
	}
	return false
}

// CutStatus tracks where a candidate stands in the rush process. It is owned
// by the wider portal; this service only reads it.
type CutStatus string

const (
	CutStatusInRush      CutStatus = "in_rush"
	CutStatusCut         CutStatus = "cut"
	CutStatusExtendedBid CutStatus = "extended_bid"
)

// Valid reports whether s is a known cut status.
func (s CutStatus) Valid() bool {
	switch s {
	case CutStatusInRush, CutStatusCut, CutStatusExtendedBid:
		return true
	}
	return false
}

type Candidate struct {
	ID           uuid.UUID `db:"id"`
	FullName     string    `db:"full_name"`
	CutStatus    CutStatus `db:"cut_status"`
	LikeCount    int32     `db:"like_count"`
	DislikeCount int32     `db:"dislike_count"`
	StarCount    int32     `db:"star_count"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type Reaction struct {
	CandidateID uuid.UUID    `db:"candidate_id"`
	ReviewerID  uuid.UUID    `db:"reviewer_id"`
	Type        ReactionType `db:"reaction_type"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// Star is a scarce endorsement. Slot is unique per (reviewer, slot), drawn
// from {1..MaxStarsPerReviewer}; rows are inserted and deleted, never
// updated in place.
type Star struct {
	CandidateID uuid.UUID `db:"candidate_id"`
	ReviewerID  uuid.UUID `db:"reviewer_id"`
	Slot        int16     `db:"slot"`
	CreatedAt   time.Time `db:"created_at"`
}

// --- Shared value types ---

// ReactionResult is the outcome of a SetReaction call: the reviewer's
// resulting reaction and the candidate's counters after the call.
type ReactionResult struct {
	Type         ReactionType `json:"reaction_type"`
	LikeCount    int32        `json:"like_count"`
	DislikeCount int32        `json:"dislike_count"`
}

// StarResult is the outcome of a SetStar call. Starred is the reviewer's
// resulting state for the candidate; a capacity-rejected star request
// reports Starred=false with the count unchanged.
type StarResult struct {
	Starred   bool  `json:"starred"`
	StarCount int32 `json:"star_count"`
}

// CandidateFilter narrows ListCandidates. Zero value means no filtering.
type CandidateFilter struct {
	CutStatus CutStatus
}

// BoardEntry is a candidate plus the calling reviewer's own state on it.
type BoardEntry struct {
	Candidate
	ReviewerReaction ReactionType
	ReviewerStarred  bool
}

// --- Interfaces ---

// EvaluationStore is typed access to candidate, reaction, and star rows.
// Single-call methods are atomic per statement only; any sequence that must
// commit or roll back as a unit runs inside InTx.
type EvaluationStore interface {
	GetCandidate(ctx context.Context, candidateID uuid.UUID) (*Candidate, error)
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]Candidate, error)
	ListReactionsByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Reaction, error)
	ListStarsByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]Star, error)

	// InTx runs fn inside one transaction. fn returning an error rolls the
	// transaction back and the error is returned unchanged.
	InTx(ctx context.Context, fn func(EvaluationTx) error) error
}

// EvaluationTx is the per-transaction view of the store.
type EvaluationTx interface {
	// GetCandidateForUpdate reads the candidate and holds a write lock on
	// its row until the transaction ends. Returns ErrCandidateNotFound if
	// the candidate does not exist.
	GetCandidateForUpdate(ctx context.Context, candidateID uuid.UUID) (*Candidate, error)

	// LockReviewer serializes star mutations for one reviewer until the
	// transaction ends, across all candidates. Must be taken before
	// ListStars / InsertStar / DeleteStar so the global cap check cannot
	// race.
	LockReviewer(ctx context.Context, reviewerID uuid.UUID) error

	// GetReaction returns ReactionNone when no row exists.
	GetReaction(ctx context.Context, candidateID, reviewerID uuid.UUID) (ReactionType, error)
	UpsertReaction(ctx context.Context, candidateID, reviewerID uuid.UUID, t ReactionType) error
	DeleteReaction(ctx context.Context, candidateID, reviewerID uuid.UUID) error

	// AddReactionCounts applies both deltas in one statement, clamped so
	// neither counter goes below zero, and returns the new counters.
	AddReactionCounts(ctx context.Context, candidateID uuid.UUID, likeDelta, dislikeDelta int) (likeCount, dislikeCount int32, err error)

	ListStars(ctx context.Context, reviewerID uuid.UUID) ([]Star, error)
	InsertStar(ctx context.Context, star Star) error
	// DeleteStar reports whether a row was actually removed.
	DeleteStar(ctx context.Context, candidateID, reviewerID uuid.UUID) (bool, error)

	// AddStarCount applies a clamped delta and returns the new counter.
	AddStarCount(ctx context.Context, candidateID uuid.UUID, delta int) (int32, error)
}

// VoteRateLimiter bounds how fast a single reviewer may submit evaluation
// writes. Allow reports whether the call may proceed (a token was consumed).
type VoteRateLimiter interface {
	Allow(ctx context.Context, reviewerID uuid.UUID) (bool, error)
}
