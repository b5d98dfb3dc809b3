package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

// NewCode draws a fixed-width numeric one-time code: a uniform integer in
// [10^(digits-1), 10^digits - 1], so the string form is always exactly
// digits characters with no leading zero.
func NewCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}
	span := low * 9 // size of [low, 10*low-1]

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(low+n.Int64(), 10), nil
}
