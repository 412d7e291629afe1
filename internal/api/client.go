// Package api implements the transaction store on top of the ledger's REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/model"
	"github.com/Veraticus/ledgerflow/internal/service"
)

// DefaultCacheTTL is how long reference collections are served from memory.
const DefaultCacheTTL = 5 * time.Minute

const (
	pathTransactions  = "/api/transactions/"
	pathAccounts      = "/api/accounts/"
	pathCreditCards   = "/api/accounts/credit-cards/"
	pathCategories    = "/api/categories/"
	pathBeneficiaries = "/api/beneficiaries/"
	pathResolve       = "/api/beneficiaries/search-or-create/"

	cacheAccounts      = "accounts"
	cacheCreditCards   = "credit_cards"
	cacheCategories    = "categories"
	cacheBeneficiaries = "beneficiaries"

	maxErrorBody = 4 << 10
)

// ErrMissingBaseURL is returned when no backend URL is configured.
var ErrMissingBaseURL = errors.New("missing backend base URL")

// StatusError is a non-success response from the backend.
type StatusError struct {
	Method     string
	Path       string
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client talks to the backend with token authentication.
type Client struct {
	httpClient *http.Client
	refs       *cache.Cache
	base       *url.URL
	token      string
	retry      service.RetryOptions
}

var _ service.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryOptions sets the retry policy for reads.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(c *Client) { c.retry = opts }
}

// WithCacheTTL sets how long reference collections are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.refs = nil
			return
		}
		c.refs = cache.New(ttl, 2*ttl)
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, common.NewConfigurationError("api.base_url", ErrMissingBaseURL)
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = fmt.Errorf("%q is not an absolute URL", baseURL)
		}
		return nil, common.NewConfigurationError("api.base_url", err)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		refs:       cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		base:       base,
		token:      token,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolve turns an API path or an absolute pagination link into a URL.
func (c *Client) resolve(path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	return c.base.String() + path, nil
}

// do sends one request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	slog.Debug("Store request", "method", method, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &common.RetryableError{Err: fmt.Errorf("%s %s: %w", method, path, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}
	switch dst := out.(type) {
	case *[]byte:
		*dst = data
		return nil
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return nil
	}
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errorMessage(raw)}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", common.ErrNotFound, statusErr)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrRateLimit, statusErr), Retryable: true}
	case resp.StatusCode >= 500:
		return &common.RetryableError{Err: statusErr, Retryable: true}
	default:
		return statusErr
	}
}

// errorMessage extracts the backend's {"error": ...} or {"detail": ...} text.
func errorMessage(raw []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}

// getAll follows pagination links from path and returns every item.
func getAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var raw []byte
		err := common.WithRetry(ctx, func() error {
			return c.do(ctx, http.MethodGet, next, nil, &raw)
		}, c.retry)
		if err != nil {
			return nil, err
		}
		items, following, err := decodePage[T](raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", next, err)
		}
		all = append(all, items...)
		next = following
	}
	return all, nil
}

// cached serves key from the reference cache, loading it on a miss.
func cached[T any](c *Client, key string, load func() ([]T, error)) ([]T, error) {
	if c.refs != nil {
		if v, ok := c.refs.Get(key); ok {
			if items, ok := v.([]T); ok {
				return items, nil
			}
		}
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	if c.refs != nil {
		c.refs.Set(key, items, cache.DefaultExpiration)
	}
	return items, nil
}

// InvalidateReferences drops every cached reference collection.
func (c *Client) InvalidateReferences() {
	if c.refs != nil {
		c.refs.Flush()
	}
}

func transactionPath(id string) string {
	return pathTransactions + url.PathEscape(id) + "/"
}

// ListTransactions returns every transaction the backend holds.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	dtos, err := getAll[transactionDTO](ctx, c, pathTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	transactions := make([]model.Transaction, 0, len(dtos))
	for _, d := range dtos {
		t, err := d.toModel()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// CreateTransaction posts txn and returns the stored record.
func (c *Client) CreateTransaction(ctx context.Context, txn model.Transaction) (*model.Transaction, error) {
	if err := txn.ValidateDraft(); err != nil {
		return nil, err
	}
	var dto transactionDTO
	if err := c.do(ctx, http.MethodPost, pathTransactions, createBody(txn), &dto); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	created, err := dto.toModel()
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTransaction sends the touched fields of patch as a partial update.
func (c *Client) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("update transaction: %w", model.ErrMissingID)
	}
	var dto transactionDTO
	if err := c.do(ctx, http.MethodPatch, transactionPath(id), patchBody(patch), &dto); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	updated, err := dto.toModel()
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction removes the transaction with id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete transaction: %w", model.ErrMissingID)
	}
	if err := c.do(ctx, http.MethodDelete, transactionPath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}

// ConfirmCreditCardCharge calls the backend's invoice-payment confirmation.
func (c *Client) ConfirmCreditCardCharge(ctx context.Context, id string) (*model.Transaction, error) {
	if id == "" {
		return nil, fmt.Errorf("confirm charge: %w", model.ErrMissingID)
	}
	var resp confirmResponse
	if err := c.do(ctx, http.MethodPost, transactionPath(id)+"confirm_credit_card_transaction/", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to confirm charge %s: %w", id, err)
	}
	confirmed, err := resp.Transaction.toModel()
	if err != nil {
		return nil, err
	}
	return &confirmed, nil
}

// ListAccounts returns the bank accounts, excluding cards.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return cached(c, cacheAccounts, func() ([]model.Account, error) {
		dtos, err := getAll[namedDTO](ctx, c, pathAccounts)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		accounts := make([]model.Account, 0, len(dtos))
		for _, d := range dtos {
			if d.AccountType == "credit_card" {
				continue
			}
			accounts = append(accounts, model.Account{ID: string(d.ID), Name: d.label(), Type: d.AccountType, Bank: d.Bank})
		}
		return accounts, nil
	})
}

// ListCreditCards returns the credit cards.
func (c *Client) ListCreditCards(ctx context.Context) ([]model.CreditCard, error) {
	return cached(c, cacheCreditCards, func() ([]model.CreditCard, error) {
		dtos, err := getAll[namedDTO](ctx, c, pathCreditCards)
		if err != nil {
			return nil, fmt.Errorf("failed to list credit cards: %w", err)
		}
		cards := make([]model.CreditCard, 0, len(dtos))
		for _, d := range dtos {
			cards = append(cards, model.CreditCard{ID: string(d.ID), Name: d.label(), Brand: d.Bandeira})
		}
		return cards, nil
	})
}

// ListCategories returns the categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	return cached(c, cacheCategories, func() ([]model.Category, error) {
		dtos, err := getAll[namedDTO](ctx, c, pathCategories)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		categories := make([]model.Category, 0, len(dtos))
		for _, d := range dtos {
			categories = append(categories, model.Category{ID: string(d.ID), Name: d.label()})
		}
		return categories, nil
	})
}

// ListBeneficiaries returns the beneficiaries.
func (c *Client) ListBeneficiaries(ctx context.Context) ([]model.Beneficiary, error) {
	return cached(c, cacheBeneficiaries, func() ([]model.Beneficiary, error) {
		dtos, err := getAll[namedDTO](ctx, c, pathBeneficiaries)
		if err != nil {
			return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
		}
		beneficiaries := make([]model.Beneficiary, 0, len(dtos))
		for _, d := range dtos {
			beneficiaries = append(beneficiaries, model.Beneficiary{ID: string(d.ID), Name: d.label()})
		}
		return beneficiaries, nil
	})
}

// ResolveOrCreateBeneficiary asks the backend for the beneficiary named name,
// which creates it when no case-insensitive match exists.
func (c *Client) ResolveOrCreateBeneficiary(ctx context.Context, name string) (*model.Beneficiary, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, common.NewValidationError("beneficiary", name, errors.New("name is required"))
	}

	var resp searchOrCreateResponse
	if err := c.do(ctx, http.MethodPost, pathResolve, map[string]string{"nome": name}, &resp); err != nil {
		return nil, fmt.Errorf("failed to resolve beneficiary %q: %w", name, err)
	}
	if resp.Created && c.refs != nil {
		c.refs.Delete(cacheBeneficiaries)
	}
	slog.Debug("Resolved beneficiary", "name", name, "id", resp.Beneficiary.ID, "created", resp.Created)
	return &model.Beneficiary{ID: string(resp.Beneficiary.ID), Name: resp.Beneficiary.label()}, nil
}
