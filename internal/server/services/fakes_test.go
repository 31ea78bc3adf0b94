package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/listings"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memAccounts is an in-memory account store that enforces handle and email
// uniqueness on insert the way the database constraints do.
type memAccounts struct {
	mu       sync.Mutex
	accounts []models.Account
	seq      int

	// afterPrecheck runs after FindByHandleOrEmail has computed its answer.
	afterPrecheck func()

	findErr   error
	insertErr error
}

func (m *memAccounts) find(match func(*models.Account) bool) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.accounts {
		if match(&m.accounts[i]) {
			a := m.accounts[i]
			return &a, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memAccounts) FindByHandleOrEmail(_ context.Context, handle, email string) (*models.Account, error) {
	a, err := m.find(func(a *models.Account) bool { return a.Handle == handle || a.Email == email })
	if m.afterPrecheck != nil {
		m.afterPrecheck()
	}
	return a, err
}

func (m *memAccounts) FindByHandle(_ context.Context, handle string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return a.Handle == handle })
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return a.ID == id })
}

func (m *memAccounts) Insert(_ context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	for _, existing := range m.accounts {
		if existing.Handle == a.Handle || existing.Email == a.Email {
			return nil, fmt.Errorf("insert %s: %w", a.Handle, common.ErrDuplicateKey)
		}
	}
	m.seq++
	a.ID = fmt.Sprintf("acc-%d", m.seq)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.accounts = append(m.accounts, *a)
	return a, nil
}

func (m *memAccounts) List(context.Context) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]*models.Account, 0, len(m.accounts))
	for i := range m.accounts {
		a := m.accounts[i]
		out = append(out, &a)
	}
	return out, nil
}

func (m *memAccounts) count(handle string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.accounts {
		if a.Handle == handle {
			n++
		}
	}
	return n
}

// memListings keeps listings in insertion order.
type memListings struct {
	mu       sync.Mutex
	listings []*models.Listing
	seq      int

	insertErr       error
	insertImagesErr error
	gotKeywords     []string
	gotFilter       models.ListingFilter
}

func (m *memListings) Insert(_ context.Context, l *models.Listing) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.seq++
	l.ID = fmt.Sprintf("l-%d", m.seq)
	cp := *l
	m.listings = append(m.listings, &cp)
	return l, nil
}

func (m *memListings) InsertImages(_ context.Context, images []models.ListingImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertImagesErr != nil {
		return m.insertImagesErr
	}
	for _, img := range images {
		for _, l := range m.listings {
			if l.ID == img.ListingID {
				l.Images = append(l.Images, img)
			}
		}
	}
	return nil
}

func (m *memListings) Get(_ context.Context, id string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.listings {
		if l.ID == id {
			cp := *l
			cp.Images = append([]models.ListingImage(nil), l.Images...)
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memListings) all() []*models.Listing {
	out := make([]*models.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		cp := *l
		cp.Images = append([]models.ListingImage(nil), l.Images...)
		out = append(out, &cp)
	}
	return out
}

func (m *memListings) List(context.Context) ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.all(), nil
}

func (m *memListings) Search(_ context.Context, f models.ListingFilter) ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotFilter = f
	var out []*models.Listing
	for _, l := range m.all() {
		if f.Tags.Company == "" || l.Tags.Company == f.Tags.Company {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memListings) GlobalSearch(_ context.Context, keywords []string) ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotKeywords = keywords
	if len(keywords) == 0 {
		return m.all(), nil
	}
	var out []*models.Listing
	for _, l := range m.all() {
		for _, kw := range keywords {
			if strings.Contains(strings.ToLower(l.Title), strings.ToLower(kw)) {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

func (m *memListings) Update(_ context.Context, l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.listings {
		if existing.ID == l.ID {
			images := existing.Images
			*existing = *l
			existing.Images = images
			return nil
		}
	}
	return common.ErrNotFound
}

func (m *memListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listings {
		if l.ID == id {
			m.listings = append(m.listings[:i], m.listings[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeRepoManager struct {
	accounts *memAccounts
	listings *memListings
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{accounts: &memAccounts{}, listings: &memListings{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository      { return m.accounts }
func (m *fakeRepoManager) Listings(dbx.DBTX) listings.Repository      { return m.listings }

// fakePresigner turns keys into predictable URLs.
type fakePresigner struct {
	err error
}

func (f *fakePresigner) sign(verb string, keys []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	urls := make([]string, len(keys))
	for i, k := range keys {
		urls[i] = "https://s3.test/" + verb + "/" + k
	}
	return urls, nil
}

func (f *fakePresigner) PresignPut(_ context.Context, keys []string) ([]string, error) {
	return f.sign("put", keys)
}

func (f *fakePresigner) PresignGet(_ context.Context, keys []string) ([]string, error) {
	return f.sign("get", keys)
}
