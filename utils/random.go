package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateCode returns n random bytes as an uppercase hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateOrderRef builds a human-readable order reference, e.g.
// "EP-20260901-3F2A9C4D". Uniqueness is enforced by the database index on
// the purchases collection; the random suffix makes collisions negligible.
func GenerateOrderRef(now time.Time) (string, error) {
	code, err := GenerateCode(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EP-%s-%s", now.UTC().Format("20060102"), code), nil
}
