// Package fetcher retrieves client, account, and transaction records from the
// ZYLYTY admin API. The transactions endpoint is paginated and flaky, so page
// requests run through a bounded retryer; the CSV downloads share the same
// retry policy.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"zylyty/importer/internal/models"
	"zylyty/importer/internal/retry"
)

// ErrIncompletePage reports that a transactions page exhausted its retry
// budget while the fetcher was configured to abort on incomplete data.
var ErrIncompletePage = errors.New("fetcher: page retry budget exhausted")

// Config holds fetcher settings. Zero values fall back to safe defaults in New.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// APIKey is the bearer credential sent with every request.
	APIKey string

	// PageSize is the limit parameter of the transactions endpoint.
	PageSize int

	// MaxPages bounds the page index so the loop terminates even against a
	// server that keeps returning data.
	MaxPages int

	// MaxRetries is the attempt budget per request.
	MaxRetries int

	// RequestTimeout bounds each individual HTTP request.
	RequestTimeout time.Duration

	// Backoff is the fixed delay between a failed attempt and its retry.
	Backoff time.Duration

	// RequestsPerSecond caps the request rate. Zero means unlimited.
	RequestsPerSecond float64

	// AbortOnIncompletePage turns retry exhaustion mid-pagination into an
	// error instead of silently truncating the record set.
	AbortOnIncompletePage bool
}

// Client fetches record sets from the admin API.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	retryer *retry.Retryer
	logger  *logrus.Logger
}

// New creates a fetcher around the provided HTTP client. The HTTP client is
// injected so tests can point the fetcher at an httptest server.
func New(config Config, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.PageSize <= 0 {
		config.PageSize = 1000
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 300
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config:  config,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		retryer: retry.New(retry.Config{
			MaxAttempts: config.MaxRetries,
			Backoff:     config.Backoff,
			Name:        "fetcher",
		}, logger),
		logger: logger,
	}
}

// transactionsEnvelope is the object form of a transactions page.
type transactionsEnvelope struct {
	Results []models.RawTransaction `json:"results"`
}

// FetchTransactions walks the paginated transactions endpoint from page 0 and
// returns the concatenation of all pages in server order.
//
// Pagination ends when a page comes back empty, when the page index passes
// MaxPages, or when a page exhausts its retries. In the last case the
// configured failure policy decides between returning what was accumulated
// and returning ErrIncompletePage.
func (c *Client) FetchTransactions(ctx context.Context) ([]models.RawTransaction, error) {
	var all []models.RawTransaction

	for page := 0; page <= c.config.MaxPages; page++ {
		var records []models.RawTransaction
		var done bool

		err := c.retryer.Do(ctx, func() error {
			var attemptErr error
			records, done, attemptErr = c.fetchPage(ctx, page)
			return attemptErr
		})
		if err != nil {
			if c.config.AbortOnIncompletePage {
				return all, fmt.Errorf("transactions page %d: %w: %v", page, ErrIncompletePage, err)
			}
			c.logger.Warnf("transactions page %d failed after %d attempts, truncating fetch: %v",
				page, c.config.MaxRetries, err)
			return all, nil
		}
		if done {
			break
		}

		all = append(all, records...)
	}

	c.logger.WithField("count", len(all)).Info("fetched transactions")
	return all, nil
}

// fetchPage performs a single page request. done reports the end of the data:
// an empty page, or any successful body that is neither a record list nor a
// results object.
func (c *Client) fetchPage(ctx context.Context, page int) (records []models.RawTransaction, done bool, err error) {
	url := fmt.Sprintf("%s/transactions?page=%d&limit=%d", c.config.BaseURL, page, c.config.PageSize)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, false, err
	}

	if err := json.Unmarshal(body, &records); err == nil {
		return records, len(records) == 0, nil
	}

	var envelope transactionsEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Results) > 0 {
		return envelope.Results, false, nil
	}

	// Successful response in any other shape means no more pages.
	return nil, true, nil
}

// FetchClients downloads and parses the clients CSV export.
func (c *Client) FetchClients(ctx context.Context) ([]models.Client, error) {
	body, err := c.download(ctx, "download/clients.csv")
	if err != nil {
		return nil, err
	}
	clients, err := parseClientsCSV(body)
	if err != nil {
		return nil, fmt.Errorf("parsing clients.csv: %w", err)
	}
	c.logger.WithField("count", len(clients)).Info("fetched clients")
	return clients, nil
}

// FetchAccounts downloads and parses the accounts CSV export.
func (c *Client) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	body, err := c.download(ctx, "download/accounts.csv")
	if err != nil {
		return nil, err
	}
	accounts, err := parseAccountsCSV(body)
	if err != nil {
		return nil, fmt.Errorf("parsing accounts.csv: %w", err)
	}
	c.logger.WithField("count", len(accounts)).Info("fetched accounts")
	return accounts, nil
}

// download fetches a CSV export with the shared retry policy. Unlike the
// paginated loop there is no partial result to fall back on, so exhausting
// the budget here is fatal.
func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.config.BaseURL, path)

	var body []byte
	err := c.retryer.Do(ctx, func() error {
		var attemptErr error
		body, attemptErr = c.get(ctx, url)
		return attemptErr
	})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}
	return body, nil
}

// get performs one authorized GET. A transport error or a non-2xx status is
// one failed attempt from the retryer's point of view.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return body, nil
}
