// Package services contains server-side business logic. This file implements
// AccountService: registration, login and resolving session tokens back to
// accounts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/cryptox"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/auth"
	"github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/repomanager"
)

// dummySalt feeds the throwaway hash computed for unknown handles when
// uniform auth errors are on, so both login failures cost one hash.
const dummySalt = "00000000000000000000000000000000"

type RegisterInput struct {
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       int64  `json:"phone"`
}

type LoginInput struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token   string
	Account *models.PublicAccount
}

type AccountService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            cryptox.Hasher
	tokens            *auth.TokenIssuer
	uniformAuthErrors bool
	newSalt           func() (string, error)
	log               logging.Logger
}

// NewAccountService fails only when cfg.PasswordAlgo names no known hasher.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenIssuer,
	cfg *config.Config, log logging.Logger) (*AccountService, error) {

	hasher, err := cryptox.ForAlgo(cfg.PasswordAlgo)
	if err != nil {
		return nil, err
	}

	return &AccountService{
		db:                db,
		repomanager:       m,
		hasher:            hasher,
		tokens:            tokens,
		uniformAuthErrors: cfg.UniformAuthErrors,
		newSalt:           cryptox.NewSalt,
		log:               log.With("module", "accounts"),
	}, nil
}

// Register creates an account. The handle/email pre-check only produces the
// friendly error early; the unique constraints in the store decide races,
// and a duplicate-key insert is reported as the same common.ErrConflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.PublicAccount, error) {
	if in.DisplayName == "" || in.Handle == "" || in.Email == "" || in.Password == "" || in.Phone == 0 {
		return nil, common.ErrValidation
	}

	repo := s.repomanager.Accounts(s.db)

	_, err := repo.FindByHandleOrEmail(ctx, in.Handle, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	salt, err := s.newSalt()
	if err != nil {
		return nil, fmt.Errorf("error generating salt: %w", err)
	}

	account := &models.Account{
		DisplayName:  in.DisplayName,
		Handle:       in.Handle,
		Email:        in.Email,
		PasswordHash: s.hasher.Hash(in.Password, salt),
		Salt:         salt,
		PasswordAlgo: s.hasher.Name(),
		Phone:        in.Phone,
	}

	created, err := repo.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateKey) {
			s.log.Info(ctx, "registration lost uniqueness race", "handle", in.Handle)
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account registered", "account_id", created.ID, "handle", created.Handle)
	return created.Public(), nil
}

// Login checks the password and issues a session token. An unknown handle
// yields common.ErrNotFound, or common.ErrInvalidCredential when uniform
// auth errors are configured.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Handle == "" || in.Password == "" {
		return nil, common.ErrValidation
	}

	account, err := s.repomanager.Accounts(s.db).FindByHandle(ctx, in.Handle)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if s.uniformAuthErrors {
				_ = cryptox.Equal(s.hasher.Hash(in.Password, dummySalt), dummySalt)
				return nil, common.ErrInvalidCredential
			}
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	hasher, err := cryptox.ForAlgo(account.PasswordAlgo)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s: %w", common.ErrStore, account.ID, err)
	}

	if !cryptox.Equal(hasher.Hash(in.Password, account.Salt), account.PasswordHash) {
		s.log.Info(ctx, "login rejected", "account_id", account.ID)
		return nil, common.ErrInvalidCredential
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login succeeded", "account_id", account.ID)
	return &LoginResult{Token: token, Account: account.Public()}, nil
}

// Account returns the public view of the account with the given id.
func (s *AccountService) Account(ctx context.Context, id string) (*models.PublicAccount, error) {
	a, err := s.repomanager.Accounts(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Public(), nil
}

func (s *AccountService) List(ctx context.Context) ([]*models.PublicAccount, error) {
	accounts, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*models.PublicAccount, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, a.Public())
	}
	return result, nil
}

// Authenticate resolves a session token to the account it was issued for.
// Token errors come straight from auth.TokenIssuer.Verify. A token for an
// account that no longer exists is reported as common.ErrNotFound.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.PublicAccount, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.Account(ctx, id)
}
