package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"papertrade/internal/apperr"
	"papertrade/internal/model"
	"papertrade/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store    store.Store
	issuer   string
	secret   []byte
	ttl      time.Duration
	hashCost int
}

func NewService(st store.Store, issuer string, secret []byte, ttl time.Duration) *Service {
	return &Service{store: st, issuer: issuer, secret: secret, ttl: ttl, hashCost: bcrypt.DefaultCost}
}

func (s *Service) SetHashCost(cost int) {
	s.hashCost = cost
}

// Register creates an account with the starting cash. Rules are checked in
// order and the first failure is returned.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (model.Account, error) {
	if username == "" {
		return model.Account{}, apperr.ErrMissingUsername
	}
	if password == "" {
		return model.Account{}, apperr.ErrMissingPassword
	}
	if password != confirmation {
		return model.Account{}, apperr.ErrPasswordMismatch
	}
	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return model.Account{}, apperr.StoreUnavailable(err)
	}
	if taken {
		return model.Account{}, apperr.ErrDuplicateUsername
	}
	if err := ValidatePassword(password); err != nil {
		return model.Account{}, err
	}
	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}
	acc, err := s.store.CreateAccount(ctx, model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Cash:         model.StartingCash,
	})
	if errors.Is(err, store.ErrDuplicateUsername) {
		return model.Account{}, apperr.ErrDuplicateUsername
	}
	if err != nil {
		return model.Account{}, apperr.StoreUnavailable(err)
	}
	return acc, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, model.Account, error) {
	if username == "" {
		return "", model.Account{}, apperr.ErrMissingUsername
	}
	if password == "" {
		return "", model.Account{}, apperr.ErrMissingPassword
	}
	acc, err := s.store.AccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", model.Account{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", model.Account{}, apperr.StoreUnavailable(err)
	}
	if !CheckPassword(acc.PasswordHash, password) {
		return "", model.Account{}, apperr.ErrInvalidCredentials
	}
	token, err := s.IssueToken(acc.ID)
	if err != nil {
		return "", model.Account{}, err
	}
	return token, acc, nil
}

func (s *Service) Account(ctx context.Context, id string) (model.Account, error) {
	acc, err := s.store.AccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return acc, apperr.ErrUnknownAccount
	}
	if err != nil {
		return acc, apperr.StoreUnavailable(err)
	}
	return acc, nil
}

// IssueToken signs a session token whose subject is the account ID.
func (s *Service) IssueToken(accountID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("invalid subject")
	}
	return claims.Subject, nil
}
