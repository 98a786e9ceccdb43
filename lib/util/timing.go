package util

import (
	"crypto/subtle"
	"time"
)

// PasswordCheckDuration is the fixed wall-clock cost of every password
// comparison, match or not.
const PasswordCheckDuration = time.Second

// CompareFixedTime compares candidate against expected in constant time,
// zeroes the candidate buffer, and blocks until minDuration has elapsed
// since entry. The fixed duration defeats timing side channels; the wipe
// defeats memory residue. Callers on the dispatch path accept the stall
// as part of the run-to-completion contract.
func CompareFixedTime(expected, candidate []byte, minDuration time.Duration) bool {
	deadline := time.Now().Add(minDuration)

	match := subtle.ConstantTimeCompare(expected, candidate) == 1
	Wipe(candidate)

	if remaining := time.Until(deadline); remaining > 0 {
		time.Sleep(remaining)
	}
	return match
}

// Wipe zeroes a sensitive buffer in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
