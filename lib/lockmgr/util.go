package lockmgr

import (
	"crypto/rand"
)

const (
	ownerIDBits = 256
)

// generateOwnerID creates a new random owner ID of ownerIDBits bits
func generateOwnerID() ([]byte, error) {
	randomBytes := make([]byte, ownerIDBits/8)
	_, err := rand.Read(randomBytes)
	return randomBytes, err
}
