// Package accounts persists registered accounts.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/carmarket/internal/server/models"
)

// Repository is the account store. Lookups that find nothing return
// common.ErrNotFound; an insert rejected by a unique constraint returns
// common.ErrDuplicateKey; every other failure unwraps to common.ErrStore.
type Repository interface {
	FindByHandleOrEmail(ctx context.Context, handle, email string) (*models.Account, error)
	FindByHandle(ctx context.Context, handle string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Insert(ctx context.Context, account *models.Account) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}
