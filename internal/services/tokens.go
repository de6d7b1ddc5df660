package services

import (
	"crypto/rand"
	"encoding/hex"
)

const trackingTokenBytes = 32

// newTrackingToken returns 64 hex characters of crypto/rand output.
func newTrackingToken() (string, error) {
	b := make([]byte, trackingTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
