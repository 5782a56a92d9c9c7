package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	TrackingPrefix = "TRK-"

	chefIDMin   = 1000
	chefIDRange = 9000
)

// NewTrackingID returns TrackingPrefix followed by 10 uppercase hex digits.
func NewTrackingID() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return TrackingPrefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// NewChefID returns a random 4-digit chef identifier.
func NewChefID() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(chefIDRange))
	if err != nil {
		return 0, fmt.Errorf("failed to draw chef id: %w", err)
	}
	return chefIDMin + int(n.Int64()), nil
}
