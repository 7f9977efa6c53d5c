// Package auth contains the credential, token, and role-policy primitives:
// bcrypt password hashing, HS256 access tokens carrying {userID, role}, and
// the pure role-set authorization check.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used when the configuration does not
// override it. At this cost a hash takes tens of milliseconds on commodity
// hardware.
const DefaultHashCost = 12

// dummyHash is a bcrypt hash of a random string nobody knows. Login flows
// compare against it when the user is missing or inactive so the failure
// path costs the same as a real password check.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// HashPassword produces a salted bcrypt hash of password at the given cost.
// The cost is read once from configuration at process start.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultHashCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash. bcrypt's comparison
// is constant-time over the digest.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck performs a bcrypt comparison against a fixed dummy hash
// and discards the result. Callers use it to equalize timing between
// "unknown user" and "wrong password" failures.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
