package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns n random bytes as a hex string of length 2n.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
