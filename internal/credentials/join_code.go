// Package credentials generates shareable codes.
package credentials

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// JoinCodeLength is the number of characters in a team join code
const JoinCodeLength = 8

// joinCodeAlphabet leaves out characters that are easy to confuse (0/O, 1/I/L)
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateJoinCode returns a random team join code
func GenerateJoinCode() (string, error) {
	code := make([]byte, JoinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[num.Int64()]
	}
	return string(code), nil
}

// NormalizeJoinCode makes user input comparable to stored codes
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// IsValidJoinCode reports whether code could have been generated here
func IsValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(joinCodeAlphabet, c) {
			return false
		}
	}
	return true
}
