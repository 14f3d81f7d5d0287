// Package identity validates student identifiers and checks account credentials.
package identity

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/slms/internal/model"
)

// Default student identifier scheme: nine digits followed by "asu".
const (
	StudentIDDigitLength = 9
	StudentIDAffix       = "asu"
)

// AffixPosition says on which side of the digits the affix sits.
type AffixPosition string

// Affix positions.
const (
	AffixPrefix AffixPosition = "prefix"
	AffixSuffix AffixPosition = "suffix"
)

// Scheme is the student identifier format: a fixed number of ASCII digits
// plus a literal affix.
type Scheme struct {
	Digits   int           `yaml:"digits"`
	Affix    string        `yaml:"affix"`
	Position AffixPosition `yaml:"position"`
}

// DefaultScheme returns the built-in identifier scheme.
func DefaultScheme() Scheme {
	return Scheme{
		Digits:   StudentIDDigitLength,
		Affix:    StudentIDAffix,
		Position: AffixSuffix,
	}
}

// Validate checks that the scheme itself is usable.
func (s Scheme) Validate() error {
	if s.Digits <= 0 {
		return fmt.Errorf("student id digit length must be positive, got %d", s.Digits)
	}
	if s.Affix == "" {
		return fmt.Errorf("student id affix must not be empty")
	}
	if s.Position != AffixPrefix && s.Position != AffixSuffix {
		return fmt.Errorf("student id affix position must be %q or %q, got %q", AffixPrefix, AffixSuffix, s.Position)
	}
	return nil
}

// IsValidStudentID reports whether id matches the scheme exactly.
func (s Scheme) IsValidStudentID(id string) bool {
	if len(id) != s.Digits+len(s.Affix) {
		return false
	}

	var digits string
	switch s.Position {
	case AffixPrefix:
		rest, ok := strings.CutPrefix(id, s.Affix)
		if !ok {
			return false
		}
		digits = rest
	case AffixSuffix:
		rest, ok := strings.CutSuffix(id, s.Affix)
		if !ok {
			return false
		}
		digits = rest
	default:
		return false
	}

	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return len(digits) == s.Digits
}

// IsValidStudentID checks id against the default scheme.
func IsValidStudentID(id string) bool {
	return DefaultScheme().IsValidStudentID(id)
}

// HashCredential hashes a credential for storage on an account.
func HashCredential(credential string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing credential: %w", err)
	}
	return hash, nil
}

// Authenticate compares supplied against the account's stored credential.
func Authenticate(account *model.Account, supplied string) bool {
	if account == nil || len(account.CredentialHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(account.CredentialHash, []byte(supplied)) == nil
}
