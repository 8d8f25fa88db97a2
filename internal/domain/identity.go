package domain

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"
)

// IdentityID is the hex-encoded Ed25519 public key of a pseudonymous identity.
type IdentityID string

func (id IdentityID) String() string { return string(id) }

// PublicKey decodes the identity into an Ed25519 public key.
func (id IdentityID) PublicKey() (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPubKey, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Identity is append-only: created at registration, never mutated or deleted.
type Identity struct {
	ID        IdentityID
	CreatedAt time.Time
}

type IdentityRepository interface {
	InsertIdentity(ctx context.Context, identity Identity) error
	GetIdentity(ctx context.Context, id IdentityID) (*Identity, error)
}
