package security

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
)

// CodeCharset is the upper-case base36 alphabet used for loyalty codes.
var CodeCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// CompareSecret reports whether provided equals expected in constant time.
// An empty expected value never matches.
func CompareSecret(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// RandomString draws length runes uniformly from charset using crypto/rand.
func RandomString(charset []rune, length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	if len(charset) == 0 {
		return "", errors.New("charset is empty")
	}
	limit := big.NewInt(int64(len(charset)))
	out := make([]rune, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}
