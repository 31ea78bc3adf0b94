package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// keySeparator joins image keys in the aggregated select. Keys are generated
// server-side and never contain it.
const keySeparator = ","

const selectListings = `SELECT l.id, l.owner_id, a.handle, l.title, l.description, l.phone,
		l.car_type, l.company, l.model, l.color, l.fuel_type, l.year,
		l.created_at, l.updated_at,
		COALESCE(string_agg(i.storage_key, ',' ORDER BY i.position), '')
	 FROM listings l
	 JOIN accounts a ON a.id = l.owner_id
	 LEFT JOIN listing_images i ON i.listing_id = l.id
	`

const groupAndOrder = `
	 GROUP BY l.id, a.handle
	 ORDER BY l.created_at`

// searchable lists the columns GlobalSearch matches keywords against.
var searchable = []string{
	"a.handle", "l.title", "l.description",
	"l.car_type", "l.company", "l.model", "l.color", "l.fuel_type", "l.year",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	query :=
		`INSERT INTO listings (owner_id, title, description, phone, car_type, company, model, color, fuel_type, year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		l.OwnerID, l.Title, l.Description, l.Phone,
		l.Tags.CarType, l.Tags.Company, l.Tags.Model, l.Tags.Color, l.Tags.FuelType, l.Tags.Year).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, storeError("LISTING_INSERT_FAILED", err, "owner_id", l.OwnerID)
	}

	return l, nil
}

func (r *PostgresRepository) InsertImages(ctx context.Context, images []models.ListingImage) error {
	query :=
		`INSERT INTO listing_images (listing_id, storage_key, position)
		 VALUES ($1, $2, $3)
		 `

	for _, img := range images {
		if _, err := r.db.ExecContext(ctx, query, img.ListingID, img.StorageKey, img.Position); err != nil {
			return storeError("LISTING_IMAGE_INSERT_FAILED", err, "listing_id", img.ListingID)
		}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Listing, error) {
	query := selectListings + `WHERE l.id = $1` + groupAndOrder

	l := &models.Listing{}
	err := scanListing(r.db.QueryRowContext(ctx, query, id), l)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadID(err) {
			return nil, common.ErrNotFound
		}
		return nil, storeError("LISTING_GET_FAILED", err, "listing_id", id)
	}
	return l, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Listing, error) {
	return r.query(ctx, "LISTING_LIST_FAILED", selectListings+groupAndOrder)
}

func (r *PostgresRepository) Search(ctx context.Context, f models.ListingFilter) ([]*models.Listing, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	text := []struct {
		column, value string
	}{
		{"l.id::text", f.ID},
		{"a.handle", f.OwnerHandle},
		{"l.title", f.Title},
		{"l.car_type", f.CarType},
		{"l.company", f.Company},
		{"l.model", f.Model},
		{"l.color", f.Color},
		{"l.fuel_type", f.FuelType},
		{"l.year", f.Year},
	}
	for _, c := range text {
		if v := strings.TrimSpace(c.value); v != "" {
			add(c.column, v)
		}
	}
	if f.Phone != 0 {
		add("l.phone", f.Phone)
	}

	query := selectListings
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ")
	}
	return r.query(ctx, "LISTING_SEARCH_FAILED", query+groupAndOrder, args...)
}

func (r *PostgresRepository) GlobalSearch(ctx context.Context, keywords []string) ([]*models.Listing, error) {
	if len(keywords) == 0 {
		return r.List(ctx)
	}

	var (
		groups []string
		args   []any
	)
	for _, kw := range keywords {
		args = append(args, "%"+escapeLike(kw)+"%")
		p := fmt.Sprintf("$%d", len(args))

		cols := make([]string, len(searchable))
		for i, c := range searchable {
			cols[i] = c + " ILIKE " + p
		}
		groups = append(groups, "("+strings.Join(cols, " OR ")+")")
	}

	query := selectListings + "WHERE " + strings.Join(groups, " OR ") + groupAndOrder
	return r.query(ctx, "LISTING_SEARCH_FAILED", query, args...)
}

func (r *PostgresRepository) Update(ctx context.Context, l *models.Listing) error {
	query :=
		`UPDATE listings
		 SET title = $2, description = $3, phone = $4,
		     car_type = $5, company = $6, model = $7, color = $8, fuel_type = $9, year = $10,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		l.ID, l.Title, l.Description, l.Phone,
		l.Tags.CarType, l.Tags.Company, l.Tags.Model, l.Tags.Color, l.Tags.FuelType, l.Tags.Year).
		Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadID(err) {
			return common.ErrNotFound
		}
		return storeError("LISTING_UPDATE_FAILED", err, "listing_id", l.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		if isBadID(err) {
			return common.ErrNotFound
		}
		return storeError("LISTING_DELETE_FAILED", err, "listing_id", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeError("LISTING_DELETE_FAILED", err, "listing_id", id)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, code, query string, args ...any) ([]*models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(code, err)
	}
	defer rows.Close()

	var result []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		if err := scanListing(rows, l); err != nil {
			return nil, storeError(code, err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(code, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner, l *models.Listing) error {
	var keys string
	err := s.Scan(&l.ID, &l.OwnerID, &l.OwnerHandle, &l.Title, &l.Description, &l.Phone,
		&l.Tags.CarType, &l.Tags.Company, &l.Tags.Model, &l.Tags.Color, &l.Tags.FuelType, &l.Tags.Year,
		&l.CreatedAt, &l.UpdatedAt, &keys)
	if err != nil {
		return err
	}

	l.Images = nil
	if keys == "" {
		return nil
	}
	for i, k := range strings.Split(keys, keySeparator) {
		l.Images = append(l.Images, models.ListingImage{ListingID: l.ID, StorageKey: k, Position: i})
	}
	return nil
}

// isBadID reports a malformed uuid literal, which can only mean the id does
// not exist.
func isBadID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func storeError(code string, err error, kv ...any) error {
	return oops.Code(code).With(kv...).Wrap(fmt.Errorf("%w: %w", common.ErrStore, err))
}
