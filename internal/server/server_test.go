package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vannesschia/rushboard/internal/config"
	"github.com/vannesschia/rushboard/internal/domain"
	apperrors "github.com/vannesschia/rushboard/internal/errors"
)

// --- function-field mocks ---

type mockReactionService struct {
	setReactionFn func(ctx context.Context, candidateID, reviewerID uuid.UUID, newType domain.ReactionType) (domain.ReactionResult, error)
}

func (m *mockReactionService) SetReaction(ctx context.Context, candidateID, reviewerID uuid.UUID, newType domain.ReactionType) (domain.ReactionResult, error) {
	return m.setReactionFn(ctx, candidateID, reviewerID, newType)
}

type mockStarAllocator struct {
	setStarFn func(ctx context.Context, candidateID, reviewerID uuid.UUID, starred bool) (domain.StarResult, error)
}

func (m *mockStarAllocator) SetStar(ctx context.Context, candidateID, reviewerID uuid.UUID, starred bool) (domain.StarResult, error) {
	return m.setStarFn(ctx, candidateID, reviewerID, starred)
}

type mockBoardService struct {
	listFn func(ctx context.Context, reviewerID uuid.UUID, filter domain.CandidateFilter) ([]domain.BoardEntry, error)
}

func (m *mockBoardService) List(ctx context.Context, reviewerID uuid.UUID, filter domain.CandidateFilter) ([]domain.BoardEntry, error) {
	return m.listFn(ctx, reviewerID, filter)
}

type mockRateLimiter struct {
	allowFn func(ctx context.Context, reviewerID uuid.UUID) (bool, error)
}

func (m *mockRateLimiter) Allow(ctx context.Context, reviewerID uuid.UUID) (bool, error) {
	if m.allowFn == nil {
		return true, nil
	}
	return m.allowFn(ctx, reviewerID)
}

// --- helpers ---

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		Port:              "8080",
		SessionSecret:     strings.Repeat("x", 32),
		VoteBurst:         10,
		VoteRatePerMinute: 30,
	}
	return NewServer(cfg, &mockReactionService{}, &mockStarAllocator{}, &mockBoardService{}, &mockRateLimiter{}, nil, nil)
}

// newHandlerContext builds an echo context the way the routing layer would,
// with the reviewer already resolved into the request context.
func newHandlerContext(t *testing.T, srv *Server, method, target, body string, reviewerID uuid.UUID, candidateID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	if candidateID != "" {
		c.SetParamNames("id")
		c.SetParamValues(candidateID)
	}
	c.Set("reviewerID", reviewerID)
	return c, rec
}

// callHandler runs a handler under the error middleware so structured errors
// render to the recorder the way they do in production.
func callHandler(t *testing.T, handler echo.HandlerFunc, c echo.Context) {
	t.Helper()
	require.NoError(t, apperrors.Middleware()(handler)(c))
}

// sessionCookieFor produces the portal session cookie a logged-in reviewer
// would carry.
func sessionCookieFor(t *testing.T, srv *Server, memberID string) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyMemberID] = memberID
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}
