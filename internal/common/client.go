package common

import (
	"crypto/sha256"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

var (
	clientIdentifierOnce sync.Once
	clientIdentifier     uuid.UUID
)

// GetClientIdentifier returns a UUID that identifies this machine to the
// content API. It is derived from the hardware ID so it stays stable across
// runs, and falls back to a random per-process UUID.
func GetClientIdentifier() uuid.UUID {
	clientIdentifierOnce.Do(func() {
		id, err := machineid.ProtectedID("inkpress-desk")
		if err != nil {
			clientIdentifier = uuid.New()
			return
		}

		hash := sha256.Sum256([]byte(id))
		clientIdentifier = uuid.UUID(hash[:16])
	})

	return clientIdentifier
}
