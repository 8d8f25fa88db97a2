package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
)

type appService interface {
	RegisterIdentity(ctx context.Context, publicKeyHex string, signature []byte) (*domain.Identity, error)
	Reputation(ctx context.Context, id domain.IdentityID) (float64, error)
	SubmitClaim(ctx context.Context, in app.SubmitClaimInput) (*domain.Claim, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error)
	ListClaims(ctx context.Context, limit int) ([]domain.Claim, error)
	SubmitVote(ctx context.Context, claimID uuid.UUID, voter domain.IdentityID, value bool, signature []byte) (*domain.Vote, error)
	TrustScore(ctx context.Context, claimID uuid.UUID, requester *domain.IdentityID) (domain.TrustScore, error)
	DeleteClaim(ctx context.Context, claimID uuid.UUID, requester domain.IdentityID, signature []byte) (int, error)
	ListAudit(ctx context.Context, limit int, before time.Time) ([]domain.AuditEntry, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app          appService
	healthChecks []HealthCheck
	metrics      *metrics.Set
	registry     *prometheus.Registry
	clock        clockwork.Clock
	startTime    time.Time
}

// NewServer wires routes and middleware. reg is served on /metrics and must
// be the registry m was created on.
func NewServer(cfg *config.Config, app appService, healthChecks []HealthCheck, m *metrics.Set, reg *prometheus.Registry, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		healthChecks: healthChecks,
		metrics:      m,
		registry:     reg,
		clock:        clock,
		startTime:    clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
