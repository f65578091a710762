// Package idgen provides random identifiers: request ids and twin ids.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// TwinAlphabet omits characters that are easy to misread (0/O, 1/I/L).
const TwinAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// TwinIDLength is the number of random characters after the "DT-" prefix.
const TwinIDLength = 6

// New generates a random UUID (v4) string.
func New() string {
	return uuid.NewString()
}

// TwinID generates a display id of the form DT-XXXXXX.
func TwinID() string {
	return "DT-" + FromAlphabet(TwinAlphabet, TwinIDLength)
}

// FromAlphabet returns n characters drawn uniformly from alphabet.
func FromAlphabet(alphabet string, n int) string {
	// Reject bytes at or above the largest multiple of len(alphabet) so every
	// character is equally likely.
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
