package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/listings"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Listings(db dbx.DBTX) listings.Repository
}
