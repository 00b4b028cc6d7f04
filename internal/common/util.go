package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const alphanum = "abcdefghijklmnopqrstuvwxyz0123456789"

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length will be
// twice the size.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// MakeRandAlphanumString returns a random lowercase alphanumeric string of
// length n. It is used for the random suffix of correlation IDs, where the
// browser clients historically used base-36 fragments.
func MakeRandAlphanumString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanum)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphanum[idx.Int64()]
	}
	return string(out), nil
}
