package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vannesschia/rushboard/internal/domain"
	apperrors "github.com/vannesschia/rushboard/internal/errors"
	"github.com/vannesschia/rushboard/internal/metrics"
)

type setReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

type setReactionResponse struct {
	Success      bool                `json:"success"`
	ReactionType domain.ReactionType `json:"reaction_type"`
	LikeCount    int32               `json:"like_count"`
	DislikeCount int32               `json:"dislike_count"`
}

type setStarRequest struct {
	Starred *bool `json:"starred"`
}

type setStarResponse struct {
	Success   bool  `json:"success"`
	Starred   bool  `json:"starred"`
	StarCount int32 `json:"star_count"`
}

type boardEntryResponse struct {
	ID               uuid.UUID           `json:"id"`
	FullName         string              `json:"full_name"`
	CutStatus        domain.CutStatus    `json:"cut_status"`
	LikeCount        int32               `json:"like_count"`
	DislikeCount     int32               `json:"dislike_count"`
	StarCount        int32               `json:"star_count"`
	ReviewerReaction domain.ReactionType `json:"reviewer_reaction"`
	ReviewerStarred  bool                `json:"reviewer_starred"`
}

func (s *Server) handleSetReaction(c echo.Context) error {
	reviewerID, candidateID, err := s.evaluationParams(c)
	if err != nil {
		return err
	}

	var req setReactionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	reactionType := domain.ReactionType(req.ReactionType)
	if !reactionType.Valid() {
		return apperrors.ValidationError("reaction_type must be one of like, dislike, none").
			WithField("reaction_type", req.ReactionType)
	}

	if err := s.checkRateLimit(c, reviewerID); err != nil {
		return err
	}

	result, err := s.reactions.SetReaction(c.Request().Context(), candidateID, reviewerID, reactionType)
	if err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			return apperrors.NotFoundError("candidate not found").WithField("candidate_id", candidateID.String())
		}
		return apperrors.InternalError("failed to set reaction", err).
			WithField("candidate_id", candidateID.String()).
			WithField("reviewer_id", reviewerID.String())
	}

	if err := c.JSON(200, setReactionResponse{
		Success:      true,
		ReactionType: result.Type,
		LikeCount:    result.LikeCount,
		DislikeCount: result.DislikeCount,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetStar(c echo.Context) error {
	reviewerID, candidateID, err := s.evaluationParams(c)
	if err != nil {
		return err
	}

	var req setStarRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Starred == nil {
		return apperrors.ValidationError("starred is required")
	}

	if err := s.checkRateLimit(c, reviewerID); err != nil {
		return err
	}

	result, err := s.stars.SetStar(c.Request().Context(), candidateID, reviewerID, *req.Starred)
	if err != nil {
		if errors.Is(err, domain.ErrCandidateNotFound) {
			return apperrors.NotFoundError("candidate not found").WithField("candidate_id", candidateID.String())
		}
		return apperrors.InternalError("failed to set star", err).
			WithField("candidate_id", candidateID.String()).
			WithField("reviewer_id", reviewerID.String())
	}

	if err := c.JSON(200, setStarResponse{
		Success:   true,
		Starred:   result.Starred,
		StarCount: result.StarCount,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListCandidates(c echo.Context) error {
	reviewerID, ok := c.Get("reviewerID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid reviewer ID in context", nil)
	}

	var filter domain.CandidateFilter
	if raw := c.QueryParam("cut_status"); raw != "" {
		cutStatus := domain.CutStatus(raw)
		if !cutStatus.Valid() {
			return apperrors.ValidationError("unknown cut_status").WithField("cut_status", raw)
		}
		filter.CutStatus = cutStatus
	}

	entries, err := s.board.List(c.Request().Context(), reviewerID, filter)
	if err != nil {
		return apperrors.InternalError("failed to list candidates", err).
			WithField("reviewer_id", reviewerID.String())
	}

	resp := make([]boardEntryResponse, len(entries))
	for i, entry := range entries {
		resp[i] = boardEntryResponse{
			ID:               entry.ID,
			FullName:         entry.FullName,
			CutStatus:        entry.CutStatus,
			LikeCount:        entry.LikeCount,
			DislikeCount:     entry.DislikeCount,
			StarCount:        entry.StarCount,
			ReviewerReaction: entry.ReviewerReaction,
			ReviewerStarred:  entry.ReviewerStarred,
		}
	}

	if err := c.JSON(200, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// evaluationParams extracts the reviewer from the request context and parses
// the candidate id path parameter.
func (s *Server) evaluationParams(c echo.Context) (reviewerID, candidateID uuid.UUID, err error) {
	reviewerID, ok := c.Get("reviewerID").(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, apperrors.InternalError("invalid reviewer ID in context", nil)
	}

	candidateID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperrors.ValidationError("invalid candidate ID format").
			WithField("candidate_id", c.Param("id"))
	}
	return reviewerID, candidateID, nil
}

// checkRateLimit consumes a token from the reviewer's vote bucket. Limiter
// errors fail open: a Redis outage must not block evaluation writes.
func (s *Server) checkRateLimit(c echo.Context, reviewerID uuid.UUID) error {
	allowed, err := s.limiter.Allow(c.Request().Context(), reviewerID)
	if err != nil {
		slog.Warn("Rate limit check failed, allowing request", "error", err, "reviewer_id", reviewerID.String())
		return nil
	}
	if !allowed {
		metrics.VotesRateLimitedTotal.Inc()
		return apperrors.RateLimitedError("too many evaluation requests").
			WithField("reviewer_id", reviewerID.String())
	}
	return nil
}
