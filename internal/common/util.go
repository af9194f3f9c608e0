package common

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// RandIndex returns a uniformly distributed integer in [0, n) taken from
// crypto/rand.
func RandIndex(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("rand index: n must be positive")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// WipeByteArray overwrites b with zeros. Used for plaintext passwords read
// from the terminal. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
