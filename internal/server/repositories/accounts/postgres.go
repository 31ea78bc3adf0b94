package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

const selectColumns = `id, display_name, handle, email, password_hash, salt, password_algo, phone, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (display_name, handle, email, password_hash, salt, password_algo, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.DisplayName, a.Handle, a.Email, a.PasswordHash, a.Salt, a.PasswordAlgo, a.Phone).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("ACCOUNT_DUPLICATE").
				With("handle", a.Handle).
				With("constraint", pgErr.ConstraintName).
				Wrap(common.ErrDuplicateKey)
		}
		return nil, storeError("ACCOUNT_INSERT_FAILED", err, "handle", a.Handle)
	}

	return a, nil
}

func (r *PostgresRepository) FindByHandleOrEmail(ctx context.Context, handle, email string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE handle = $1 OR email = $2
		 LIMIT 1
		 `
	return r.findOne(ctx, "ACCOUNT_LOOKUP_FAILED", query, handle, email)
}

func (r *PostgresRepository) FindByHandle(ctx context.Context, handle string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE handle = $1
		 `
	return r.findOne(ctx, "ACCOUNT_LOOKUP_FAILED", query, handle)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.findOne(ctx, "ACCOUNT_LOOKUP_FAILED", query, id)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM accounts
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("ACCOUNT_LIST_FAILED", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a := &models.Account{}
		if err := scanAccount(rows, a); err != nil {
			return nil, storeError("ACCOUNT_LIST_FAILED", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("ACCOUNT_LIST_FAILED", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner, a *models.Account) error {
	return s.Scan(&a.ID, &a.DisplayName, &a.Handle, &a.Email, &a.PasswordHash,
		&a.Salt, &a.PasswordAlgo, &a.Phone, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PostgresRepository) findOne(ctx context.Context, code, query string, args ...any) (*models.Account, error) {
	a := &models.Account{}
	err := scanAccount(r.db.QueryRowContext(ctx, query, args...), a)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storeError(code, err)
	}

	return a, nil
}

func storeError(code string, err error, kv ...any) error {
	return oops.Code(code).With(kv...).Wrap(fmt.Errorf("%w: %w", common.ErrStore, err))
}
