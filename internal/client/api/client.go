// Package api is a small client for the carmarket REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API, which means the
// session token is missing, expired or forged.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// HTTPClient returns the underlying client, used for presigned uploads.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (*Account, error) {
	var out struct {
		Account *Account `json:"account"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/docs/users/signup", "", in, &out); err != nil {
		return nil, err
	}
	return out.Account, nil
}

func (c *Client) Login(ctx context.Context, userName, password string) (*LoginResponse, error) {
	in := map[string]string{"userName": userName, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/docs/users/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/api/docs/users/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCar(ctx context.Context, token string, in CarRequest) (*AddCarResponse, error) {
	var out AddCarResponse
	if err := c.do(ctx, http.MethodPost, "/api/docs/cars/add-car", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
