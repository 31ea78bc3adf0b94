package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/repomanager"
)

// ListingInput is the client-editable part of a listing.
type ListingInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Phone       int64       `json:"phone"`
	Tags        models.Tags `json:"tags"`
}

func (in ListingInput) validate() error {
	t := in.Tags
	for _, v := range []string{in.Title, in.Description, t.CarType, t.Company, t.Model, t.Color, t.FuelType, t.Year} {
		if strings.TrimSpace(v) == "" {
			return common.ErrValidation
		}
	}
	return nil
}

type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImagePresigner
	newKey      func() string
	log         logging.Logger
}

func NewListingService(db *sql.DB, m repomanager.RepositoryManager, images ImagePresigner, log logging.Logger) *ListingService {
	return &ListingService{
		db:          db,
		repomanager: m,
		images:      images,
		newKey:      NewStorageKey,
		log:         log.With("module", "listings"),
	}
}

// Create stores a listing owned by ownerID with imageCount empty image
// slots, and returns one upload task per slot. A zero phone falls back to
// the owner's phone.
func (s *ListingService) Create(ctx context.Context, ownerID string, in ListingInput, imageCount int) (*models.Listing, []models.UploadTask, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	if imageCount < 0 {
		return nil, nil, common.ErrValidation
	}
	if imageCount > common.MaxListingImages {
		return nil, nil, common.ErrTooManyImages
	}

	owner, err := s.repomanager.Accounts(s.db).FindByID(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("error looking up owner: %w", err)
	}

	keys, tasks, err := s.uploadSlots(ctx, imageCount)
	if err != nil {
		return nil, nil, err
	}

	listing := &models.Listing{
		OwnerID:     owner.ID,
		OwnerHandle: owner.Handle,
		Title:       in.Title,
		Description: in.Description,
		Phone:       in.Phone,
		Tags:        in.Tags,
	}
	if listing.Phone == 0 {
		listing.Phone = owner.Phone
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Listings(tx)

		if _, err := repo.Insert(ctx, listing); err != nil {
			return err
		}
		listing.Images = imageRows(listing.ID, keys, 0)
		return repo.InsertImages(ctx, listing.Images)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating listing: %w", err)
	}

	s.log.Info(ctx, "listing created", "listing_id", listing.ID, "owner_id", owner.ID, "images", imageCount)
	return listing, tasks, nil
}

// Get returns a listing with presigned download URLs for its images.
func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.repomanager.Listings(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachURLs(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) List(ctx context.Context) ([]*models.Listing, error) {
	return s.withURLs(ctx)(s.repomanager.Listings(s.db).List(ctx))
}

// Search matches listings on equality of every non-blank filter field.
func (s *ListingService) Search(ctx context.Context, f models.ListingFilter) ([]*models.Listing, error) {
	return s.withURLs(ctx)(s.repomanager.Listings(s.db).Search(ctx, f))
}

// GlobalSearch matches listings where any keyword of query occurs in the
// owner handle, title, description or a tag. A query that is empty after
// dropping stop words returns every listing.
func (s *ListingService) GlobalSearch(ctx context.Context, query string) ([]*models.Listing, error) {
	return s.withURLs(ctx)(s.repomanager.Listings(s.db).GlobalSearch(ctx, Keywords(query)))
}

// Update replaces the text fields of a listing owned by ownerID and appends
// newImageCount image slots. Existing images are kept.
func (s *ListingService) Update(ctx context.Context, ownerID, id string, in ListingInput, newImageCount int) (*models.Listing, []models.UploadTask, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	if newImageCount < 0 {
		return nil, nil, common.ErrValidation
	}

	repo := s.repomanager.Listings(s.db)
	listing, err := repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, nil, common.ErrForbidden
	}
	if len(listing.Images)+newImageCount > common.MaxListingImages {
		return nil, nil, common.ErrTooManyImages
	}

	keys, tasks, err := s.uploadSlots(ctx, newImageCount)
	if err != nil {
		return nil, nil, err
	}

	listing.Title = in.Title
	listing.Description = in.Description
	listing.Tags = in.Tags
	if in.Phone != 0 {
		listing.Phone = in.Phone
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Listings(tx)

		if err := repo.Update(ctx, listing); err != nil {
			return err
		}
		added := imageRows(listing.ID, keys, len(listing.Images))
		if err := repo.InsertImages(ctx, added); err != nil {
			return err
		}
		listing.Images = append(listing.Images, added...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error updating listing: %w", err)
	}

	s.log.Info(ctx, "listing updated", "listing_id", listing.ID, "images_added", newImageCount)
	return listing, tasks, nil
}

// Delete removes a listing owned by ownerID. Image objects are left in the
// bucket.
func (s *ListingService) Delete(ctx context.Context, ownerID, id string) error {
	repo := s.repomanager.Listings(s.db)

	listing, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return common.ErrForbidden
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info(ctx, "listing deleted", "listing_id", id)
	return nil
}

func (s *ListingService) uploadSlots(ctx context.Context, n int) ([]string, []models.UploadTask, error) {
	if n == 0 {
		return nil, nil, nil
	}

	keys := make([]string, n)
	for i := range keys {
		keys[i] = s.newKey()
	}

	urls, err := s.images.PresignPut(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("error presigning uploads: %w", err)
	}

	tasks := make([]models.UploadTask, n)
	for i := range keys {
		tasks[i] = models.UploadTask{StorageKey: keys[i], URL: urls[i]}
	}
	return keys, tasks, nil
}

func imageRows(listingID string, keys []string, offset int) []models.ListingImage {
	rows := make([]models.ListingImage, 0, len(keys))
	for i, k := range keys {
		rows = append(rows, models.ListingImage{ListingID: listingID, StorageKey: k, Position: offset + i})
	}
	return rows
}

func (s *ListingService) attachURLs(ctx context.Context, l *models.Listing) error {
	if len(l.Images) == 0 {
		return nil
	}

	keys := make([]string, len(l.Images))
	for i, img := range l.Images {
		keys[i] = img.StorageKey
	}

	urls, err := s.images.PresignGet(ctx, keys)
	if err != nil {
		return fmt.Errorf("error presigning downloads: %w", err)
	}
	for i := range l.Images {
		l.Images[i].URL = urls[i]
	}
	return nil
}

func (s *ListingService) withURLs(ctx context.Context) func([]*models.Listing, error) ([]*models.Listing, error) {
	return func(listings []*models.Listing, err error) ([]*models.Listing, error) {
		if err != nil {
			return nil, err
		}
		for _, l := range listings {
			if err := s.attachURLs(ctx, l); err != nil {
				return nil, err
			}
		}
		return listings, nil
	}
}
