package importer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"zylyty/importer/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func id(v int64) *int64 { return &v }

// fakeFetcher returns canned record sets.
type fakeFetcher struct {
	clients  []models.Client
	accounts []models.Account
	raw      []models.RawTransaction

	clientsErr      error
	transactionsErr error
}

func (f *fakeFetcher) FetchClients(ctx context.Context) ([]models.Client, error) {
	return f.clients, f.clientsErr
}

func (f *fakeFetcher) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	return f.accounts, nil
}

func (f *fakeFetcher) FetchTransactions(ctx context.Context) ([]models.RawTransaction, error) {
	return f.raw, f.transactionsErr
}

// fakeStorage records the load calls in order.
type fakeStorage struct {
	order        []string
	clients      []models.Client
	accounts     []models.Account
	transactions []models.Transaction

	transactionsErr error
}

func (s *fakeStorage) LoadClients(ctx context.Context, clients []models.Client) error {
	s.order = append(s.order, "clients")
	s.clients = clients
	return nil
}

func (s *fakeStorage) LoadAccounts(ctx context.Context, accounts []models.Account) error {
	s.order = append(s.order, "accounts")
	s.accounts = accounts
	return nil
}

func (s *fakeStorage) LoadTransactions(ctx context.Context, transactions []models.Transaction) error {
	s.order = append(s.order, "transactions")
	s.transactions = transactions
	return s.transactionsErr
}

type fakeViews struct {
	published bool
	err       error
}

func (v *fakeViews) PublishAll(ctx context.Context) error {
	v.published = true
	return v.err
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{
		clients: []models.Client{{ClientID: "C1"}, {ClientID: "C2"}},
		accounts: []models.Account{
			{AccountID: 1, ClientID: "C1"},
			{AccountID: 2, ClientID: "C9"}, // unknown client
		},
		raw: []models.RawTransaction{
			{TransactionID: id(1), AccountID: 1, Amount: "10.5", Timestamp: "2024-03-01 10:00:00"},
			{TransactionID: id(1), AccountID: 1, Amount: "10.5", Timestamp: "2024-03-01 10:00:00"}, // duplicate
			{TransactionID: id(2), AccountID: 1, Amount: "abc", Timestamp: "2024-03-01 11:00:00"},
		},
	}
}

func TestRunHappyPath(t *testing.T) {
	fetcher := testFetcher()
	store := &fakeStorage{}
	publisher := &fakeViews{}

	summary, err := New(fetcher, store, publisher, testLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary.Clients != 2 || summary.Accounts != 2 || summary.Transactions != 2 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if summary.String() != "ZYLYTY Data Import Completed [2, 2, 2]" {
		t.Errorf("Unexpected completion line %q", summary.String())
	}

	wantOrder := []string{"clients", "accounts", "transactions"}
	if len(store.order) != len(wantOrder) {
		t.Fatalf("Expected 3 loads, got %v", store.order)
	}
	for i, table := range wantOrder {
		if store.order[i] != table {
			t.Errorf("Expected load %d to be %s, got %s", i, table, store.order[i])
		}
	}

	// The orphaned account must be excluded from the load.
	if len(store.accounts) != 1 || store.accounts[0].AccountID != 1 {
		t.Errorf("Expected only account 1 loaded, got %v", store.accounts)
	}

	// Duplicate dropped, malformed amount coerced to zero.
	if len(store.transactions) != 2 {
		t.Fatalf("Expected 2 transactions loaded, got %d", len(store.transactions))
	}
	if !store.transactions[1].Amount.IsZero() {
		t.Errorf("Expected coerced zero amount, got %s", store.transactions[1].Amount)
	}

	if !publisher.published {
		t.Error("Expected views to be published")
	}
}

func TestRunFetchErrorIsFatal(t *testing.T) {
	fetcher := testFetcher()
	fetcher.clientsErr = errors.New("boom")
	store := &fakeStorage{}

	_, err := New(fetcher, store, &fakeViews{}, testLogger()).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}
	if len(store.order) != 0 {
		t.Errorf("Expected no loads after a fetch failure, got %v", store.order)
	}
}

func TestRunLoadErrorSurfacesWithSummary(t *testing.T) {
	fetcher := testFetcher()
	loadErr := errors.New("constraint violation")
	store := &fakeStorage{transactionsErr: loadErr}
	publisher := &fakeViews{}

	summary, err := New(fetcher, store, publisher, testLogger()).Run(context.Background())
	if !errors.Is(err, loadErr) {
		t.Fatalf("Expected the load error, got %v", err)
	}
	if summary.Clients != 2 {
		t.Errorf("Expected counts computed before the failure, got %+v", summary)
	}
	if publisher.published {
		t.Error("Expected view publishing to be skipped after a load failure")
	}
}

func TestRunViewErrorSurfaces(t *testing.T) {
	fetcher := testFetcher()
	viewErr := errors.New("ddl failed")

	_, err := New(fetcher, &fakeStorage{}, &fakeViews{err: viewErr}, testLogger()).Run(context.Background())
	if !errors.Is(err, viewErr) {
		t.Fatalf("Expected the view error, got %v", err)
	}
}
