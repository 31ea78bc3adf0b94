// Package listings persists car listings and the storage keys of their images.
package listings

import (
	"context"

	"github.com/dmitrijs2005/carmarket/internal/server/models"
)

// Repository is the listing store. Get, Update and Delete return
// common.ErrNotFound for unknown ids; other failures unwrap to common.ErrStore.
type Repository interface {
	Insert(ctx context.Context, l *models.Listing) (*models.Listing, error)
	InsertImages(ctx context.Context, images []models.ListingImage) error
	Get(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	Search(ctx context.Context, f models.ListingFilter) ([]*models.Listing, error)
	// GlobalSearch returns listings where any keyword occurs, case-insensitively,
	// in the owner handle, title, description or a tag.
	GlobalSearch(ctx context.Context, keywords []string) ([]*models.Listing, error)
	Update(ctx context.Context, l *models.Listing) error
	Delete(ctx context.Context, id string) error
}
