package listings

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingColumns = []string{
	"id", "owner_id", "handle", "title", "description", "phone",
	"car_type", "company", "model", "color", "fuel_type", "year",
	"created_at", "updated_at", "keys",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func civicRows(keys string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(listingColumns).
		AddRow("l-1", "a-1", "bob", "Civic", "clean", int64(5),
			"sedan", "Honda", "Civic", "red", "petrol", "2019", now, now, keys)
}

func civic() *models.Listing {
	return &models.Listing{
		OwnerID: "a-1", Title: "Civic", Description: "clean", Phone: 5,
		Tags: models.Tags{CarType: "sedan", Company: "Honda", Model: "Civic", Color: "red", FuelType: "petrol", Year: "2019"},
	}
}

func TestInsert(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+listings\s*\(owner_id,.*\)\s*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).
			WithArgs("a-1", "Civic", "clean", int64(5), "sedan", "Honda", "Civic", "red", "petrol", "2019").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("l-1", now, now))

		got, err := repo.Insert(context.Background(), civic())
		require.NoError(t, err)
		assert.Equal(t, "l-1", got.ID)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		_, err := repo.Insert(context.Background(), civic())
		assert.ErrorIs(t, err, common.ErrStore)
	})
}

func TestInsertImages(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+listing_images\s*\(listing_id,\s*storage_key,\s*position\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`

	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(q).WithArgs("l-1", "k0", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("l-1", "k1", 1).WillReturnError(errors.New("boom"))

	err := repo.InsertImages(context.Background(), []models.ListingImage{
		{ListingID: "l-1", StorageKey: "k0", Position: 0},
		{ListingID: "l-1", StorageKey: "k1", Position: 1},
	})
	assert.ErrorIs(t, err, common.ErrStore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	q := `(?s)^SELECT\s+l\.id,.*FROM\s+listings\s+l.*WHERE\s+l\.id\s*=\s*\$1\s+GROUP\s+BY.*$`

	t.Run("with images", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("l-1").WillReturnRows(civicRows("k0,k1"))

		got, err := repo.Get(context.Background(), "l-1")
		require.NoError(t, err)
		assert.Equal(t, "bob", got.OwnerHandle)
		assert.Equal(t, "Honda", got.Tags.Company)
		require.Len(t, got.Images, 2)
		assert.Equal(t, models.ListingImage{ListingID: "l-1", StorageKey: "k1", Position: 1}, got.Images[1])
	})

	t.Run("without images", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("l-1").WillReturnRows(civicRows(""))

		got, err := repo.Get(context.Background(), "l-1")
		require.NoError(t, err)
		assert.Empty(t, got.Images)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("l-9").WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "l-9")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("zzz").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation})

		_, err := repo.Get(context.Background(), "zzz")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+l\.id,.*LEFT\s+JOIN\s+listing_images\s+i\s+ON\s+i\.listing_id\s*=\s*l\.id\s+GROUP\s+BY\s+l\.id,\s*a\.handle\s+ORDER\s+BY\s+l\.created_at$`
	mock.ExpectQuery(q).WillReturnRows(civicRows("k0"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Civic", got[0].Title)
}

func TestSearch(t *testing.T) {
	t.Run("equality on set fields", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		q := `(?s)WHERE\s+a\.handle\s*=\s*\$1\s+AND\s+l\.company\s*=\s*\$2\s+AND\s+l\.phone\s*=\s*\$3\s+GROUP\s+BY`
		mock.ExpectQuery(q).WithArgs("bob", "Honda", int64(5)).WillReturnRows(civicRows(""))

		f := models.ListingFilter{OwnerHandle: "bob", Phone: 5, Tags: models.Tags{Company: " Honda "}}
		got, err := repo.Search(context.Background(), f)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("empty filter lists everything", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		q := `(?s)LEFT\s+JOIN\s+listing_images\s+i\s+ON\s+i\.listing_id\s*=\s*l\.id\s+GROUP\s+BY`
		mock.ExpectQuery(q).WithArgs().WillReturnRows(sqlmock.NewRows(listingColumns))

		got, err := repo.Search(context.Background(), models.ListingFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)SELECT`).WillReturnError(errors.New("boom"))

		_, err := repo.Search(context.Background(), models.ListingFilter{Title: "x"})
		assert.ErrorIs(t, err, common.ErrStore)
	})
}

func TestGlobalSearch(t *testing.T) {
	t.Run("keywords become ILIKE groups", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		q := `(?s)WHERE\s+\(a\.handle\s+ILIKE\s+\$1\s+OR\s+l\.title\s+ILIKE\s+\$1.*l\.year\s+ILIKE\s+\$1\)\s+OR\s+\(a\.handle\s+ILIKE\s+\$2.*\)\s+GROUP\s+BY`
		mock.ExpectQuery(q).WithArgs("%honda%", `%50\%%`).WillReturnRows(civicRows(""))

		got, err := repo.GlobalSearch(context.Background(), []string{"honda", "50%"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("no keywords lists everything", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)GROUP\s+BY\s+l\.id,\s*a\.handle\s+ORDER\s+BY\s+l\.created_at$`).
			WillReturnRows(civicRows(""))

		got, err := repo.GlobalSearch(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestUpdate(t *testing.T) {
	q := `(?s)^UPDATE\s+listings\s+SET\s+title\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s+RETURNING\s+updated_at\s*$`

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		now := time.Now()
		mock.ExpectQuery(q).
			WithArgs("l-1", "Civic", "clean", int64(5), "sedan", "Honda", "Civic", "red", "petrol", "2019").
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		l := civic()
		l.ID = "l-1"
		require.NoError(t, repo.Update(context.Background(), l))
		assert.Equal(t, now, l.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

		assert.ErrorIs(t, repo.Update(context.Background(), civic()), common.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	q := `(?s)^DELETE\s+FROM\s+listings\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("l-1").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(context.Background(), "l-1"))
	})

	t.Run("nothing deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("l-9").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), "l-9"), common.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("l-1").WillReturnError(errors.New("boom"))
		assert.ErrorIs(t, repo.Delete(context.Background(), "l-1"), common.ErrStore)
	})
}
