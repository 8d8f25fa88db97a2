package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/rumorpulse/internal/adapter/metrics"
	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/pscheid92/rumorpulse/internal/reputation"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ClaimLimits bounds how far in the future a claim deadline may be set.
type ClaimLimits struct {
	MinDuration time.Duration
	MaxDuration time.Duration
}

// Service is the application layer. It is the only component that talks to
// the store, the reputation engine and the signature verifier together.
type Service struct {
	store    domain.Store
	engine   *reputation.Engine
	verifier domain.SignatureVerifier
	clock    clockwork.Clock
	limits   ClaimLimits
	metrics  *metrics.Set
	limiter  domain.VoteRateLimiter
}

// NewService creates the application layer service. m may be nil.
func NewService(store domain.Store, engine *reputation.Engine, verifier domain.SignatureVerifier, clock clockwork.Clock, limits ClaimLimits, m *metrics.Set) *Service {
	if m == nil {
		m = metrics.NewSet(prometheus.NewRegistry())
	}
	return &Service{
		store:    store,
		engine:   engine,
		verifier: verifier,
		clock:    clock,
		limits:   limits,
		metrics:  m,
	}
}

// SetVoteLimiter caps the vote rate per identity. Limiter failures are
// logged and the vote is let through.
func (s *Service) SetVoteLimiter(l domain.VoteRateLimiter) {
	s.limiter = l
}

// RegisterIdentity registers the hex-encoded Ed25519 public key as a new
// identity. The signature over RegisterMessage proves key possession.
func (s *Service) RegisterIdentity(ctx context.Context, publicKeyHex string, signature []byte) (*domain.Identity, error) {
	id := domain.IdentityID(strings.ToLower(strings.TrimSpace(publicKeyHex)))
	if _, err := id.PublicKey(); err != nil {
		return nil, err
	}
	if !s.verifier.Verify(domain.RegisterMessage(id), signature, id) {
		return nil, domain.ErrInvalidSignature
	}

	identity := domain.Identity{ID: id, CreatedAt: s.clock.Now()}
	entry, err := domain.NewAuditEntry(domain.AuditRegister, domain.ActorRef(id), id.String(), identity, identity.CreatedAt)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(q domain.Queries) error {
		if err := q.InsertIdentity(ctx, identity); err != nil {
			return err
		}
		return q.InsertAudit(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}

	slog.InfoContext(ctx, "Identity registered", "identity", id)
	return &identity, nil
}

// SubmitClaimInput carries a signed claim submission.
type SubmitClaimInput struct {
	CreatorID domain.IdentityID
	Content   string
	Category  string
	Deadline  time.Time
	Signature []byte
}

// SubmitClaim validates and stores a new claim. The deadline is truncated to
// whole seconds, matching the precision of the signed message.
func (s *Service) SubmitClaim(ctx context.Context, in SubmitClaimInput) (*domain.Claim, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(content); n > domain.MaxClaimContentLength {
		return nil, fmt.Errorf("%w: content must be at most %d characters, got %d", domain.ErrInvalidInput, domain.MaxClaimContentLength, n)
	}

	category, ok := domain.ParseCategory(in.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, in.Category)
	}

	now := s.clock.Now()
	deadline := in.Deadline.Truncate(time.Second).UTC()
	if d := deadline.Sub(now); d < s.limits.MinDuration || d > s.limits.MaxDuration {
		return nil, fmt.Errorf("%w: deadline must be between %s and %s from now", domain.ErrInvalidInput, s.limits.MinDuration, s.limits.MaxDuration)
	}

	if _, err := s.store.GetIdentity(ctx, in.CreatorID); err != nil {
		return nil, err
	}
	if !s.verifier.Verify(domain.ClaimMessage(in.Content, category, deadline), in.Signature, in.CreatorID) {
		return nil, domain.ErrInvalidSignature
	}

	claim := domain.Claim{
		ID:        uuid.New(),
		Content:   content,
		Category:  category,
		CreatorID: in.CreatorID,
		CreatedAt: now,
		Deadline:  deadline,
	}
	entry, err := domain.NewAuditEntry(domain.AuditCreateClaim, domain.ActorRef(in.CreatorID), claim.ID.String(), claim, now)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(q domain.Queries) error {
		if err := q.InsertClaim(ctx, claim); err != nil {
			return err
		}
		return q.InsertAudit(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit claim: %w", err)
	}

	s.metrics.Votes.ClaimsSubmitted.Inc()
	slog.InfoContext(ctx, "Claim submitted", "claim_id", claim.ID, "creator", claim.CreatorID, "category", claim.Category, "deadline", claim.Deadline)
	return &claim, nil
}

// SubmitVote records a signed vote. Votes are accepted strictly before the
// claim's deadline and at most once per identity.
func (s *Service) SubmitVote(ctx context.Context, claimID uuid.UUID, voter domain.IdentityID, value bool, signature []byte) (*domain.Vote, error) {
	vote, err := s.submitVote(ctx, claimID, voter, value, signature)
	s.metrics.Votes.VotesProcessed.WithLabelValues(voteResult(err)).Inc()
	return vote, err
}

func (s *Service) submitVote(ctx context.Context, claimID uuid.UUID, voter domain.IdentityID, value bool, signature []byte) (*domain.Vote, error) {
	if _, err := s.store.GetIdentity(ctx, voter); err != nil {
		return nil, err
	}
	claim, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !s.verifier.Verify(domain.VoteMessage(claimID, value), signature, voter) {
		return nil, domain.ErrInvalidSignature
	}

	now := s.clock.Now()
	if !claim.Open(now) {
		return nil, domain.ErrVotingClosed
	}
	if err := s.checkVoteRate(ctx, voter); err != nil {
		return nil, err
	}

	vote := domain.Vote{ClaimID: claimID, VoterID: voter, Value: value, VotedAt: now}
	entry, err := domain.NewAuditEntry(domain.AuditVote, domain.ActorRef(voter), claimID.String(), vote, now)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(q domain.Queries) error {
		if err := q.InsertVote(ctx, vote); err != nil {
			return err
		}
		return q.InsertAudit(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit vote: %w", err)
	}

	slog.DebugContext(ctx, "Vote recorded", "claim_id", claimID, "voter", voter, "value", value)
	return &vote, nil
}

func (s *Service) checkVoteRate(ctx context.Context, voter domain.IdentityID) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.AllowVote(ctx, voter)
	if err != nil {
		slog.WarnContext(ctx, "Vote rate limiter unavailable, allowing vote", "voter", voter, "error", err)
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

func voteResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrDuplicateVote):
		return "duplicate"
	case errors.Is(err, domain.ErrVotingClosed):
		return "closed"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	default:
		return "rejected"
	}
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	return s.store.GetClaim(ctx, id)
}

// ListClaims returns the newest claims. limit is clamped to MaxPageSize and
// defaults to DefaultPageSize.
func (s *Service) ListClaims(ctx context.Context, limit int) ([]domain.Claim, error) {
	return s.store.ListClaims(ctx, PageSize(limit))
}

// ListAudit returns audit entries newest first, strictly older than before
// when before is non-zero.
func (s *Service) ListAudit(ctx context.Context, limit int, before time.Time) ([]domain.AuditEntry, error) {
	return s.store.ListAudit(ctx, PageSize(limit), before)
}

// Reputation returns the current reputation of a registered identity.
func (s *Service) Reputation(ctx context.Context, id domain.IdentityID) (float64, error) {
	if _, err := s.store.GetIdentity(ctx, id); err != nil {
		return 0, err
	}
	return s.engine.Reputation(ctx, id)
}

// PageSize clamps a requested page size to [1, MaxPageSize], defaulting to DefaultPageSize.
func PageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}
