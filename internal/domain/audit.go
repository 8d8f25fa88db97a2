package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditRegister    AuditAction = "REGISTER"
	AuditCreateClaim AuditAction = "CREATE_CLAIM"
	AuditVote        AuditAction = "VOTE"
	AuditFinalize    AuditAction = "FINALIZE"
	AuditDelete      AuditAction = "DELETE"
)

// AuditEntry is append-only and publicly readable. ActorID is nil for
// system actions such as finalization.
type AuditEntry struct {
	ID          uuid.UUID
	Action      AuditAction
	ActorID     *IdentityID
	TargetID    string
	ContentHash string
	CreatedAt   time.Time
}

type AuditRepository interface {
	InsertAudit(ctx context.Context, entry AuditEntry) error
	// ListAudit returns entries newest first. A zero before returns the latest page.
	ListAudit(ctx context.Context, limit int, before time.Time) ([]AuditEntry, error)
}

const auditHashDomain = "rumorpulse/audit/v1"

// NewAuditEntry builds an entry whose ContentHash commits to payload.
// The hash is SHA256(domain || 0x00 || json(payload)).
func NewAuditEntry(action AuditAction, actor *IdentityID, targetID string, payload any, now time.Time) (AuditEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(auditHashDomain))
	h.Write([]byte{0x00})
	h.Write(data)

	return AuditEntry{
		ID:          uuid.New(),
		Action:      action,
		ActorID:     actor,
		TargetID:    targetID,
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		CreatedAt:   now,
	}, nil
}

// ActorRef returns a pointer suitable for AuditEntry.ActorID.
func ActorRef(id IdentityID) *IdentityID {
	return &id
}
