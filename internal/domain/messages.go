package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// The functions below build the exact byte strings clients sign.

func RegisterMessage(id IdentityID) []byte {
	return []byte("rumorpulse:register:" + id.String())
}

func ClaimMessage(content string, category Category, deadline time.Time) []byte {
	sum := sha256.Sum256([]byte(content))
	return []byte("rumorpulse:claim:" + hex.EncodeToString(sum[:]) + ":" + string(category) + ":" + strconv.FormatInt(deadline.Unix(), 10))
}

func VoteMessage(claimID uuid.UUID, value bool) []byte {
	return []byte("rumorpulse:vote:" + claimID.String() + ":" + strconv.FormatBool(value))
}

func DeleteMessage(claimID uuid.UUID) []byte {
	return []byte("rumorpulse:delete:" + claimID.String())
}
