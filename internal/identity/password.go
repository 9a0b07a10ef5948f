package identity

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// passwordPolicyViolations mirrors the backing store's password rules.
// Each violation is a separate human-readable detail string.
func passwordPolicyViolations(password string) []string {
	var details []string
	if len(password) < 8 {
		details = append(details, "password must be at least 8 characters")
	}
	var hasDigit, hasLetter bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		}
	}
	if !hasDigit {
		details = append(details, "password must contain a digit")
	}
	if !hasLetter {
		details = append(details, "password must contain a letter")
	}
	return details
}
