package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/pscheid92/rumorpulse/internal/domain"
)

// Ed25519Verifier implements domain.SignatureVerifier.
type Ed25519Verifier struct{}

func NewEd25519Verifier() Ed25519Verifier {
	return Ed25519Verifier{}
}

// Verify reports whether signature is a valid signature of message by the
// identity's key. Malformed keys or signatures yield false.
func (Ed25519Verifier) Verify(message, signature []byte, identity domain.IdentityID) bool {
	pub, err := identity.PublicKey()
	if err != nil {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, signature)
}

// DecodeSignature parses a hex-encoded signature.
func DecodeSignature(s string) ([]byte, error) {
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: signature must be hex: %w", domain.ErrInvalidInput, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", domain.ErrInvalidInput, ed25519.SignatureSize, len(sig))
	}
	return sig, nil
}
