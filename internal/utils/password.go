package utils

import "golang.org/x/crypto/bcrypt"

// placeholderHash stands in for the stored hash of an unknown account so a
// failed login by username costs the same bcrypt work either way.
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("parking-placeholder"), bcrypt.DefaultCost)

// clampCost maps a configured cost into bcrypt's accepted range; 0 means
// bcrypt.DefaultCost.
func clampCost(cost int) int {
	switch {
	case cost == 0:
		return bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}

// HashPassword hashes an account password with the configured cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), clampCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.  An empty hash (no such
// account) is checked against a placeholder and always fails.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
