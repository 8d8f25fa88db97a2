// Package cryptotest provides signing identities and verifier doubles for tests.
package cryptotest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/pscheid92/rumorpulse/internal/domain"
)

// Signer is a throwaway Ed25519 identity. Test use only.
type Signer struct {
	ID   domain.IdentityID
	priv ed25519.PrivateKey
}

func NewSigner(t testing.TB) *Signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return &Signer{ID: domain.IdentityID(hex.EncodeToString(pub)), priv: priv}
}

func (s *Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.priv, message)
}

func (s *Signer) SignHex(message []byte) string {
	return hex.EncodeToString(s.Sign(message))
}

// AcceptAll verifies every signature. Test use only.
type AcceptAll struct{}

func (AcceptAll) Verify([]byte, []byte, domain.IdentityID) bool { return true }

// RejectAll verifies no signature. Test use only.
type RejectAll struct{}

func (RejectAll) Verify([]byte, []byte, domain.IdentityID) bool { return false }
