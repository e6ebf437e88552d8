package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vannesschia/rushboard/internal/config"
	"github.com/vannesschia/rushboard/internal/domain"
	apperrors "github.com/vannesschia/rushboard/internal/errors"
)

const sessionMaxAgeDays = 7

// Service interfaces are kept server-local and minimal so handler tests can
// swap in function-field mocks.

type reactionService interface {
	SetReaction(ctx context.Context, candidateID, reviewerID uuid.UUID, newType domain.ReactionType) (domain.ReactionResult, error)
}

type starAllocator interface {
	SetStar(ctx context.Context, candidateID, reviewerID uuid.UUID, starred bool) (domain.StarResult, error)
}

type boardService interface {
	List(ctx context.Context, reviewerID uuid.UUID, filter domain.CandidateFilter) ([]domain.BoardEntry, error)
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	reactions    reactionService
	stars        starAllocator
	board        boardService
	limiter      domain.VoteRateLimiter
	sessionStore *sessions.CookieStore
	db           *pgxpool.Pool
	redisClient  *goredis.Client
	startTime    time.Time

	// test overrides for health checks
	postgresHealthCheck postgresHealthChecker
	redisHealthCheck    redisHealthChecker
}

func NewServer(cfg *config.Config, reactions reactionService, stars starAllocator, board boardService, limiter domain.VoteRateLimiter, db *pgxpool.Pool, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	// Session store shared with the portal's identity layer
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		reactions:    reactions,
		stars:        stars,
		board:        board,
		limiter:      limiter,
		sessionStore: sessionStore,
		db:           db,
		redisClient:  redisClient,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
