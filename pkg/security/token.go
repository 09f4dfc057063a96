package security

import (
	"crypto/rand"
	"fmt"
)

var alphanumericCharset = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// RandomAlphanumeric produces a random [A-Za-z0-9] string of the given length.
func RandomAlphanumeric(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	result := make([]byte, length)
	for i := 0; i < length; i++ {
		idx, err := randInt(len(alphanumericCharset))
		if err != nil {
			return "", err
		}
		result[i] = alphanumericCharset[idx]
	}
	return string(result), nil
}

// randInt draws from [0, max) without modulo bias.
func randInt(max int) (int, error) {
	if max <= 0 || max > 256 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	limit := 256 - (256 % max)
	buff := make([]byte, 1)
	for {
		if _, err := rand.Read(buff); err != nil {
			return 0, err
		}
		if int(buff[0]) < limit {
			return int(buff[0]) % max, nil
		}
	}
}
