package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/thaijunny/fashion-be/internal/usecase"
)

// BcryptHasher hashes account passwords. Cost 0 selects bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var _ usecase.PasswordHasher = BcryptHasher{}
