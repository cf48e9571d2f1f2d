package service

import (
	"context"
	"errors"
	"fmt"

	"payment_ledger/internal/model"
	"payment_ledger/internal/repository"
	"payment_ledger/internal/utils"
)

var (
	ErrLoginTaken         = errors.New("account with this login already exists")
	ErrInvalidCredentials = errors.New("invalid login or password")
)

// StartBalance is credited to every new account, in minor units
const StartBalance int64 = 100000

// AuthService provides registration and authentication
type AuthService interface {
	Register(ctx context.Context, login, password string) (*model.Account, string, error)
	Login(ctx context.Context, login, password string) (*model.Account, string, error)
}

type authService struct {
	accounts repository.AccountStore
	jwtUtil  *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(accounts repository.AccountStore, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		accounts: accounts,
		jwtUtil:  jwtUtil,
	}
}

// Register creates a new account with the starting balance.
// There is deliberately no lookup before the insert: the unique constraint on
// login decides the race between two registrations, so exactly one wins and
// the other gets ErrLoginTaken.
func (s *authService) Register(ctx context.Context, login, password string) (*model.Account, string, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &model.Account{
		Login:        login,
		PasswordHash: hashedPassword,
		Balance:      StartBalance,
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateLogin) {
			return nil, "", ErrLoginTaken
		}
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(acc.ID)
	if err != nil {
		return acc, "", fmt.Errorf("account created, but failed to generate token: %w", err)
	}

	return acc, token, nil
}

// Login authenticates an account and returns a JWT token
func (s *authService) Login(ctx context.Context, login, password string) (*model.Account, string, error) {
	acc, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		return nil, "", fmt.Errorf("error finding account by login: %w", err)
	}
	if acc == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, acc.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(acc.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return acc, token, nil
}
