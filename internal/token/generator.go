package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// FieldName is the form field carrying the double-submit token.
const FieldName = "_token"

// tokenBits of entropy per token; rendered in base 36 this is at most 32 characters.
const tokenBits = 165

var tokenLimit = new(big.Int).Lsh(big.NewInt(1), tokenBits)

// Generate returns a fresh unpredictable token value.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, tokenLimit)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return n.Text(36), nil
}
