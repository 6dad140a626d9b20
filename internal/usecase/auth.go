package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/thaijunny/fashion-be/internal/entity"
)

type RegisterInput struct {
	Email, Password, FullName string
}

type AuthResult struct {
	User  *domain.User
	Token string
}

type Auth struct {
	users  UserRepo
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewAuth(users UserRepo, hasher PasswordHasher, tokens TokenIssuer) *Auth {
	return &Auth{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

// Register creates a plain user account. The role is never taken from input.
func (uc *Auth) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	const op = "Register"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, Validation(op, "invalid email address")
	}
	if len(in.Password) < 6 {
		return AuthResult{}, Validation(op, "password must be at least 6 characters")
	}

	_, err := uc.users.GetByEmail(ctx, email)
	if err == nil {
		return AuthResult{}, Validation(op, "user already exists")
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return AuthResult{}, Internal(op, err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, Internal(op, err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         domain.RoleUser,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrRecordExists) {
			return AuthResult{}, Validation(op, "user already exists")
		}
		return AuthResult{}, Internal(op, err)
	}
	return uc.issue(op, u)
}

func (uc *Auth) Login(ctx context.Context, email, password string) (AuthResult, error) {
	const op = "Login"

	u, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrRecordNotFound) {
		return AuthResult{}, Validation(op, "invalid credentials")
	}
	if err != nil {
		return AuthResult{}, Internal(op, err)
	}
	// accounts created through a social login have no local password
	if u.PasswordHash == "" || uc.hasher.Compare(u.PasswordHash, password) != nil {
		return AuthResult{}, Validation(op, "invalid credentials")
	}
	if u.IsBlocked {
		return AuthResult{}, Forbidden(op, "account is blocked")
	}
	return uc.issue(op, u)
}

// Authenticate loads the user behind a verified token subject.
func (uc *Auth) Authenticate(ctx context.Context, userID string) (*domain.User, error) {
	const op = "Authenticate"
	u, err := uc.users.GetByID(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, NotFound(op, "user not found")
	}
	if err != nil {
		return nil, Internal(op, err)
	}
	if u.IsBlocked {
		return nil, Forbidden(op, "account is blocked")
	}
	return u, nil
}

func (uc *Auth) issue(op string, u *domain.User) (AuthResult, error) {
	tok, err := uc.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return AuthResult{}, Internal(op, err)
	}
	return AuthResult{User: u, Token: tok}, nil
}
