package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used when a caller passes a cost outside bcrypt's range.
const DefaultBcryptCost = 10

// HashPassword returns a salted bcrypt hash of plain using the given cost.
// Two calls with the same input return different hashes.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
// A malformed hash is a mismatch.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
