package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vannesschia/rushboard/internal/domain"
	"github.com/vannesschia/rushboard/internal/metrics"
)

// candidateColumns must match the Scan order in scanCandidate.
const candidateColumns = `id, full_name, cut_status, like_count, dislike_count, star_count, created_at, updated_at`

// EvaluationStore implements domain.EvaluationStore backed by PostgreSQL.
type EvaluationStore struct {
	pool *pgxpool.Pool
}

// NewEvaluationStore creates an EvaluationStore from the shared pool.
func NewEvaluationStore(pool *pgxpool.Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool}
}

func observeQuery(name string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(
		&c.ID, &c.FullName, &c.CutStatus,
		&c.LikeCount, &c.DislikeCount, &c.StarCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *EvaluationStore) GetCandidate(ctx context.Context, candidateID uuid.UUID) (*domain.Candidate, error) {
	defer observeQuery("get_candidate", time.Now())

	candidate, err := scanCandidate(s.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, candidateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return candidate, nil
}

func (s *EvaluationStore) ListCandidates(ctx context.Context, filter domain.CandidateFilter) ([]domain.Candidate, error) {
	defer observeQuery("list_candidates", time.Now())

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(candidateColumns).From("candidates")
	if filter.CutStatus != "" {
		sb.Where(sb.Equal("cut_status", string(filter.CutStatus)))
	}
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return candidates, nil
}

func (s *EvaluationStore) ListReactionsByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]domain.Reaction, error) {
	defer observeQuery("list_reactions_by_reviewer", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT candidate_id, reviewer_id, reaction_type, created_at, updated_at
		FROM reactions
		WHERE reviewer_id = $1
	`, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	var reactions []domain.Reaction
	for rows.Next() {
		var r domain.Reaction
		if err := rows.Scan(&r.CandidateID, &r.ReviewerID, &r.Type, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reactions: %w", err)
	}
	return reactions, nil
}

func (s *EvaluationStore) ListStarsByReviewer(ctx context.Context, reviewerID uuid.UUID) ([]domain.Star, error) {
	defer observeQuery("list_stars_by_reviewer", time.Now())
	return listStars(ctx, s.pool, reviewerID)
}

// InTx runs fn inside one transaction so state-row and counter mutations
// commit or roll back as a unit.
func (s *EvaluationStore) InTx(ctx context.Context, fn func(domain.EvaluationTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&evaluationTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// evaluationTx implements domain.EvaluationTx on a pgx transaction.
type evaluationTx struct {
	tx pgx.Tx
}

func (t *evaluationTx) GetCandidateForUpdate(ctx context.Context, candidateID uuid.UUID) (*domain.Candidate, error) {
	defer observeQuery("get_candidate_for_update", time.Now())

	candidate, err := scanCandidate(t.tx.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, candidateID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate for update: %w", err)
	}
	return candidate, nil
}

func (t *evaluationTx) LockReviewer(ctx context.Context, reviewerID uuid.UUID) error {
	defer observeQuery("lock_reviewer", time.Now())

	// Transaction-scoped advisory lock: released automatically at commit or
	// rollback. Serializes the cross-candidate star cap check per reviewer.
	if _, err := t.tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, reviewerID); err != nil {
		return fmt.Errorf("failed to lock reviewer: %w", err)
	}
	return nil
}

func (t *evaluationTx) GetReaction(ctx context.Context, candidateID, reviewerID uuid.UUID) (domain.ReactionType, error) {
	defer observeQuery("get_reaction", time.Now())

	var reactionType domain.ReactionType
	err := t.tx.QueryRow(ctx, `
		SELECT reaction_type FROM reactions
		WHERE candidate_id = $1 AND reviewer_id = $2
	`, candidateID, reviewerID).Scan(&reactionType)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ReactionNone, nil
	}
	if err != nil {
		return domain.ReactionNone, fmt.Errorf("failed to get reaction: %w", err)
	}
	return reactionType, nil
}

func (t *evaluationTx) UpsertReaction(ctx context.Context, candidateID, reviewerID uuid.UUID, reactionType domain.ReactionType) error {
	defer observeQuery("upsert_reaction", time.Now())

	_, err := t.tx.Exec(ctx, `
		INSERT INTO reactions (candidate_id, reviewer_id, reaction_type, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (candidate_id, reviewer_id) DO UPDATE SET
			reaction_type = EXCLUDED.reaction_type,
			updated_at = NOW()
	`, candidateID, reviewerID, reactionType)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}

func (t *evaluationTx) DeleteReaction(ctx context.Context, candidateID, reviewerID uuid.UUID) error {
	defer observeQuery("delete_reaction", time.Now())

	_, err := t.tx.Exec(ctx, `
		DELETE FROM reactions WHERE candidate_id = $1 AND reviewer_id = $2
	`, candidateID, reviewerID)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	return nil
}

func (t *evaluationTx) AddReactionCounts(ctx context.Context, candidateID uuid.UUID, likeDelta, dislikeDelta int) (int32, int32, error) {
	defer observeQuery("add_reaction_counts", time.Now())

	var likeCount, dislikeCount int32
	err := t.tx.QueryRow(ctx, `
		UPDATE candidates
		SET like_count = GREATEST(like_count + $2, 0),
		    dislike_count = GREATEST(dislike_count + $3, 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING like_count, dislike_count
	`, candidateID, likeDelta, dislikeDelta).Scan(&likeCount, &dislikeCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, domain.ErrCandidateNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to update reaction counts: %w", err)
	}
	return likeCount, dislikeCount, nil
}

func (t *evaluationTx) ListStars(ctx context.Context, reviewerID uuid.UUID) ([]domain.Star, error) {
	defer observeQuery("list_stars", time.Now())
	return listStars(ctx, t.tx, reviewerID)
}

func (t *evaluationTx) InsertStar(ctx context.Context, star domain.Star) error {
	defer observeQuery("insert_star", time.Now())

	_, err := t.tx.Exec(ctx, `
		INSERT INTO stars (candidate_id, reviewer_id, slot, created_at)
		VALUES ($1, $2, $3, $4)
	`, star.CandidateID, star.ReviewerID, star.Slot, star.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert star: %w", err)
	}
	return nil
}

func (t *evaluationTx) DeleteStar(ctx context.Context, candidateID, reviewerID uuid.UUID) (bool, error) {
	defer observeQuery("delete_star", time.Now())

	tag, err := t.tx.Exec(ctx, `
		DELETE FROM stars WHERE candidate_id = $1 AND reviewer_id = $2
	`, candidateID, reviewerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete star: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *evaluationTx) AddStarCount(ctx context.Context, candidateID uuid.UUID, delta int) (int32, error) {
	defer observeQuery("add_star_count", time.Now())

	var starCount int32
	err := t.tx.QueryRow(ctx, `
		UPDATE candidates
		SET star_count = GREATEST(star_count + $2, 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING star_count
	`, candidateID, delta).Scan(&starCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrCandidateNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update star count: %w", err)
	}
	return starCount, nil
}

// querier covers both pool and transaction access for shared reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listStars(ctx context.Context, q querier, reviewerID uuid.UUID) ([]domain.Star, error) {
	rows, err := q.Query(ctx, `
		SELECT candidate_id, reviewer_id, slot, created_at
		FROM stars
		WHERE reviewer_id = $1
		ORDER BY slot
	`, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stars: %w", err)
	}
	defer rows.Close()

	var stars []domain.Star
	for rows.Next() {
		var st domain.Star
		if err := rows.Scan(&st.CandidateID, &st.ReviewerID, &st.Slot, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan star: %w", err)
		}
		stars = append(stars, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stars: %w", err)
	}
	return stars, nil
}
