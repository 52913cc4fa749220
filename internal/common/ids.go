package common

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewULID returns a 26-char, time-ordered id.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RandomString returns n characters drawn from [a-z0-9].
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = idAlphabet[v.Int64()]
	}
	return string(b), nil
}

func CompletionID() (string, error) {
	s, err := RandomString(16)
	if err != nil {
		return "", err
	}
	return "chatcmpl-" + s, nil
}
