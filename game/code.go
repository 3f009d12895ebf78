package game

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	CodeLength   = 6
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CodeGenerator produces candidate room codes. Uniqueness is enforced by
// the registry.
type CodeGenerator func() string

// RandomCode draws CodeLength characters from CodeAlphabet.
func RandomCode() string {
	var sb strings.Builder
	sb.Grow(CodeLength)

	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		sb.WriteByte(CodeAlphabet[n.Int64()])
	}
	return sb.String()
}

// NormalizeCode upper-cases and trims a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
