// Package codespace models the finite space of short codes: a bounded
// alphabet, a fixed length, and the A^L ceiling the allocation engine
// enforces before generating candidates.
package codespace

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet is the character set codes are drawn from. Uppercase letters
// only, matching the format enforced at the HTTP boundary.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Space describes one configured code space.
type Space struct {
	length int
}

// New returns a Space for codes of the given length.
func New(length int) (*Space, error) {
	if length <= 0 {
		return nil, fmt.Errorf("code length must be positive, got %d", length)
	}
	return &Space{length: length}, nil
}

// Length returns the fixed code length.
func (s *Space) Length() int {
	return s.length
}

// Capacity returns the total number of distinct codes, len(Alphabet)^length.
func (s *Space) Capacity() int64 {
	capacity := int64(1)
	for i := 0; i < s.length; i++ {
		capacity *= int64(len(Alphabet))
	}
	return capacity
}

// Generate draws a uniform random code: one independent crypto/rand draw
// per position. Draws are not guaranteed distinct across calls; collision
// handling belongs to the caller.
func (s *Space) Generate() (string, error) {
	code := make([]byte, s.length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = Alphabet[num.Int64()]
	}
	return string(code), nil
}

// Valid reports whether code has the right length and only uses characters
// from the alphabet.
func (s *Space) Valid(code string) bool {
	if len(code) != s.length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
