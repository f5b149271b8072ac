// Package common provides identifier generation shared by the sandbox backend and the clients.
package common

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// ReferenceType selects the shape of a generated reference.
type ReferenceType int

const (
	REF_TYPE_PSP       ReferenceType = iota // payment service provider reference
	REF_TYPE_ORDER                          // partial-payment order reference
	REF_TYPE_GIFT_CARD                      // sandbox gift card number
)

const (
	REFERENCE_LEN = 16

	LETTERS = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DIGITS  = "0123456789"
	CHARS   = LETTERS + DIGITS
)

// secureRandomInt returns a uniformly distributed random number in [0, max).
func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("max must be positive, got %d", max)
	}
	if max > math.MaxInt32 {
		return 0, fmt.Errorf("max too large: %d", max)
	}

	// reject values above the largest multiple of max to avoid modulo bias
	limit := (math.MaxUint64 / uint64(max)) * uint64(max)

	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to generate random bytes: %w", err)
		}
		n := binary.BigEndian.Uint64(buf[:])
		if n < limit {
			return int(n % uint64(max)), nil
		}
	}
}

// NewReference generates a REFERENCE_LEN character reference. PSP references are
// all digits, order references start with "O" and gift card numbers start with "G".
func NewReference(t ReferenceType) (string, error) {
	switch t {
	case REF_TYPE_PSP:
		return randomString(DIGITS, REFERENCE_LEN)
	case REF_TYPE_ORDER:
		code, err := randomString(CHARS, REFERENCE_LEN-1)
		if err != nil {
			return "", err
		}
		return "O" + code, nil
	case REF_TYPE_GIFT_CARD:
		code, err := randomString(DIGITS, REFERENCE_LEN-1)
		if err != nil {
			return "", err
		}
		return "G" + code, nil
	default:
		return "", fmt.Errorf("unknown reference type %d", t)
	}
}

func randomString(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive, got %d", length)
	}
	result := make([]byte, length)
	for i := range result {
		idx, err := secureRandomInt(len(alphabet))
		if err != nil {
			return "", fmt.Errorf("failed to generate character at position %d: %w", i, err)
		}
		result[i] = alphabet[idx]
	}
	return string(result), nil
}
