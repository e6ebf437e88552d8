package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/vannesschia/rushboard/internal/errors"
)

const (
	sessionName        = "portal_session"
	sessionKeyMemberID = "member_id"
)

// requireAuth resolves the reviewer identity from the portal session cookie.
// Identity resolution itself belongs to the portal; this service only reads
// the member id the portal placed in the shared session.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		memberID, ok := session.Values[sessionKeyMemberID]
		if !ok {
			return apperrors.UnauthorizedError("authentication required")
		}

		memberIDStr, ok := memberID.(string)
		if !ok {
			return apperrors.UnauthorizedError("authentication required")
		}

		reviewerID, err := uuid.Parse(memberIDStr)
		if err != nil {
			return apperrors.UnauthorizedError("authentication required")
		}

		c.Set("reviewerID", reviewerID)
		return next(c)
	}
}
