// Package importer orchestrates one ZYLYTY data import run: fetch the three
// record sets concurrently, clean the transactions, load everything in
// referential order, and republish the reporting views.
package importer

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"zylyty/importer/internal/cleaner"
	"zylyty/importer/internal/models"
	"zylyty/importer/internal/storage"
)

// Fetcher is the slice of the API client the importer needs. The three
// fetches hit independent endpoints and have no data dependency on each
// other, so Run calls them concurrently.
type Fetcher interface {
	FetchClients(ctx context.Context) ([]models.Client, error)
	FetchAccounts(ctx context.Context) ([]models.Account, error)
	FetchTransactions(ctx context.Context) ([]models.RawTransaction, error)
}

// ViewPublisher recreates the derived reporting views.
type ViewPublisher interface {
	PublishAll(ctx context.Context) error
}

// Summary holds the totals reported at the end of a run.
type Summary struct {
	Clients      int
	Accounts     int
	Transactions int
}

// String renders the completion line in the format the downstream tooling
// scrapes: totals in the order clients, accounts, transactions.
func (s Summary) String() string {
	return fmt.Sprintf("ZYLYTY Data Import Completed [%d, %d, %d]", s.Clients, s.Accounts, s.Transactions)
}

// Importer wires the fetcher, storage, and view publisher together.
// Uses dependency injection for testability - it receives tools, doesn't
// create them.
type Importer struct {
	fetcher Fetcher
	storage storage.Storage
	views   ViewPublisher
	logger  *logrus.Logger
}

// New creates an importer with the provided collaborators.
func New(fetcher Fetcher, storage storage.Storage, views ViewPublisher, logger *logrus.Logger) *Importer {
	return &Importer{
		fetcher: fetcher,
		storage: storage,
		views:   views,
		logger:  logger,
	}
}

// Run executes one import. It returns the summary counts of the record sets
// it loaded; on error the summary reflects whatever was computed before the
// failing step.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	var (
		clients   []models.Client
		accounts  []models.Account
		raw       []models.RawTransaction
		fetchErrs [3]error
	)

	// One worker per resource; each produces an independent record set.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		clients, fetchErrs[0] = im.fetcher.FetchClients(ctx)
	}()
	go func() {
		defer wg.Done()
		accounts, fetchErrs[1] = im.fetcher.FetchAccounts(ctx)
	}()
	go func() {
		defer wg.Done()
		raw, fetchErrs[2] = im.fetcher.FetchTransactions(ctx)
	}()
	wg.Wait()

	for i, name := range [3]string{"clients", "accounts", "transactions"} {
		if fetchErrs[i] != nil {
			return Summary{}, fmt.Errorf("fetching %s: %w", name, fetchErrs[i])
		}
	}

	cleaned := cleaner.Clean(raw)
	if dropped := len(raw) - len(cleaned); dropped > 0 {
		im.logger.WithField("dropped", dropped).Info("cleaned transactions")
	}

	summary := Summary{
		Clients:      len(clients),
		Accounts:     len(accounts),
		Transactions: len(cleaned),
	}

	// Referential order: clients before accounts before transactions.
	if err := im.storage.LoadClients(ctx, clients); err != nil {
		return summary, err
	}

	valid, orphaned := storage.FilterAccounts(accounts, clients)
	for _, account := range orphaned {
		im.logger.WithFields(logrus.Fields{
			"account_id": account.AccountID,
			"client_id":  account.ClientID,
		}).Warn("excluding account referencing unknown client")
	}
	if err := im.storage.LoadAccounts(ctx, valid); err != nil {
		return summary, err
	}

	if err := im.storage.LoadTransactions(ctx, cleaner.Rows(cleaned)); err != nil {
		return summary, err
	}

	if err := im.views.PublishAll(ctx); err != nil {
		return summary, err
	}

	return summary, nil
}
