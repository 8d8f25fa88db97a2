package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/rumorpulse/internal/adapter/memory"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/app"
	"github.com/pscheid92/rumorpulse/internal/crypto"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/platform/config"
	"github.com/pscheid92/rumorpulse/internal/platform/crypto/cryptotest"
	"github.com/pscheid92/rumorpulse/internal/reputation"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	srv       *Server
	svc       *app.Service
	store     *memory.Store
	clock     *clockwork.FakeClock
	finalizer *app.Finalizer
}

type serverOption func(*config.Config, *[]HealthCheck)

func withHealthChecks(checks ...HealthCheck) serverOption {
	return func(_ *config.Config, hc *[]HealthCheck) { *hc = checks }
}

func withRateLimit(perSecond float64, burst int) serverOption {
	return func(cfg *config.Config, _ *[]HealthCheck) {
		cfg.RateLimitPerSecond = perSecond
		cfg.RateLimitBurst = burst
	}
}

func newTestEnv(t *testing.T, opts ...serverOption) *testEnv {
	t.Helper()
	cfg := &config.Config{Port: "0", RateLimitPerSecond: 1000, RateLimitBurst: 1000}
	var checks []HealthCheck
	for _, opt := range opts {
		opt(cfg, &checks)
	}

	reg := metrics.NewRegistry()
	m := metrics.NewSet(reg)
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(t0)
	engine := reputation.NewEngine(store, clock, reputation.DefaultCacheTTL, m.Reputation)
	svc := app.NewService(store, engine, crypto.NewEd25519Verifier(), clock,
		app.ClaimLimits{MinDuration: time.Minute, MaxDuration: 720 * time.Hour}, m)

	return &testEnv{
		srv:       NewServer(cfg, svc, checks, m, reg, clock),
		svc:       svc,
		store:     store,
		clock:     clock,
		finalizer: app.NewFinalizer(store, engine, clock, time.Minute, 100, nil, metrics.NewFinalizerMetrics(prometheus.NewRegistry())),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	e.srv.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) register(t *testing.T) *cryptotest.Signer {
	t.Helper()
	s := cryptotest.NewSigner(t)
	rec := e.do(t, http.MethodPost, "/api/identities", registerRequest{
		PublicKey: s.ID.String(),
		Signature: s.SignHex(domain.RegisterMessage(s.ID)),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return s
}

func (e *testEnv) claim(t *testing.T, creator *cryptotest.Signer, d time.Duration) claimResponse {
	t.Helper()
	deadline := e.clock.Now().Add(d)
	rec := e.do(t, http.MethodPost, "/api/claims", claimRequest{
		CreatorID: creator.ID.String(),
		Content:   "Library opens 24/7 during finals",
		Category:  "campus",
		Deadline:  deadline,
		Signature: creator.SignHex(domain.ClaimMessage("Library opens 24/7 during finals", domain.CategoryCampus, deadline)),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[claimResponse](t, rec)
}

func (e *testEnv) vote(t *testing.T, voter *cryptotest.Signer, claim claimResponse, value bool) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/claims/"+claim.ID.String()+"/votes", voteRequest{
		VoterID:   voter.ID.String(),
		Value:     &value,
		Signature: voter.SignHex(domain.VoteMessage(claim.ID, value)),
	})
}

func (e *testEnv) finalize(t *testing.T, claim claimResponse) {
	t.Helper()
	e.clock.Advance(claim.Deadline.Sub(e.clock.Now()))
	res := e.finalizer.FinalizeDue(context.Background())
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Finalized)
}

func newRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = testRemoteAddr
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.srv.echo.ServeHTTP(rec, req)
	return rec
}
