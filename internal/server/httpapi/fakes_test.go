package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	registerIn  services.RegisterInput
	registerErr error
	loginIn     services.LoginInput
	loginRes    *services.LoginResult
	loginErr    error
	accounts    map[string]*models.PublicAccount
	listErr     error
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.PublicAccount, error) {
	f.registerIn = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.PublicAccount{ID: "acc-1", DisplayName: in.DisplayName, Handle: in.Handle, Email: in.Email, Phone: in.Phone}, nil
}

func (f *fakeAccounts) Login(_ context.Context, in services.LoginInput) (*services.LoginResult, error) {
	f.loginIn = in
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginRes, nil
}

func (f *fakeAccounts) Account(_ context.Context, id string) (*models.PublicAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) List(context.Context) ([]*models.PublicAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.PublicAccount, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

type fakeListings struct {
	ownerID    string
	input      services.ListingInput
	imageCount int
	filter     models.ListingFilter
	query      string
	listing    *models.Listing
	uploads    []models.UploadTask
	err        error
}

func (f *fakeListings) Create(_ context.Context, ownerID string, in services.ListingInput, n int) (*models.Listing, []models.UploadTask, error) {
	f.ownerID, f.input, f.imageCount = ownerID, in, n
	return f.listing, f.uploads, f.err
}

func (f *fakeListings) Get(_ context.Context, id string) (*models.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.listing == nil || f.listing.ID != id {
		return nil, common.ErrNotFound
	}
	return f.listing, nil
}

func (f *fakeListings) List(context.Context) ([]*models.Listing, error) {
	return []*models.Listing{f.listing}, f.err
}

func (f *fakeListings) Search(_ context.Context, filter models.ListingFilter) ([]*models.Listing, error) {
	f.filter = filter
	return []*models.Listing{f.listing}, f.err
}

func (f *fakeListings) GlobalSearch(_ context.Context, query string) ([]*models.Listing, error) {
	f.query = query
	return []*models.Listing{f.listing}, f.err
}

func (f *fakeListings) Update(_ context.Context, ownerID, id string, in services.ListingInput, n int) (*models.Listing, []models.UploadTask, error) {
	f.ownerID, f.input, f.imageCount = ownerID, in, n
	return f.listing, f.uploads, f.err
}

func (f *fakeListings) Delete(_ context.Context, ownerID, id string) error {
	f.ownerID = ownerID
	return f.err
}

// fakeTokens maps known tokens to account ids or errors.
type fakeTokens map[string]any

func (f fakeTokens) Verify(token string) (string, error) {
	switch v := f[token].(type) {
	case string:
		return v, nil
	case error:
		return "", v
	default:
		return "", common.ErrInvalidSignature
	}
}

type fixture struct {
	server   *Server
	accounts *fakeAccounts
	listings *fakeListings
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		accounts: &fakeAccounts{accounts: map[string]*models.PublicAccount{
			"acc-1": {ID: "acc-1", Handle: "alice", DisplayName: "Alice", Email: "a@x", Phone: 5551234},
		}},
		listings: &fakeListings{},
	}
	tokens := fakeTokens{
		"good":    "acc-1",
		"ghost":   "acc-404",
		"expired": common.ErrExpiredToken,
	}
	f.server = NewServer(f.accounts, f.listings, tokens, logging.Nop{}, opts)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	status, raw := f.doRaw(t, method, path, body, headers...)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return status, out
}

func (f *fixture) doRaw(t *testing.T, method, path, body string, headers ...string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func bearer(token string) []string {
	return []string{http.CanonicalHeaderKey(common.AuthorizationHeaderName), common.BearerPrefix + token}
}
