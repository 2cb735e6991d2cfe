// Package storage persists imported record sets into Postgres.
package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"zylyty/importer/configs"
	"zylyty/importer/internal/models"
)

// Rows inserted per statement. Keeps bulk inserts under Postgres parameter
// limits with the widest table (transactions, 6 columns).
const insertBatchSize = 500

// Storage defines the interface for persisting imported record sets.
// The loader writes each record set inside a single transaction, so a failed
// load never leaves a half-written table.
type Storage interface {
	// LoadClients writes the clients record set.
	LoadClients(ctx context.Context, clients []models.Client) error

	// LoadAccounts writes the accounts record set. Callers are expected to
	// have filtered out accounts referencing unknown clients first.
	LoadAccounts(ctx context.Context, accounts []models.Account) error

	// LoadTransactions writes the cleaned transactions record set.
	LoadTransactions(ctx context.Context, transactions []models.Transaction) error
}

// gormStorage implements Storage on a gorm Postgres handle.
type gormStorage struct {
	db       *gorm.DB
	strategy configs.LoadStrategy
	logger   *logrus.Logger
}

// NewGormStorage creates a Postgres-backed Storage using the given load
// strategy: append inserts and skips primary-key conflicts, replace clears
// each table before inserting.
func NewGormStorage(db *gorm.DB, strategy configs.LoadStrategy, logger *logrus.Logger) Storage {
	return &gormStorage{db: db, strategy: strategy, logger: logger}
}

func (s *gormStorage) LoadClients(ctx context.Context, clients []models.Client) error {
	return loadTable(ctx, s, "clients", clients)
}

func (s *gormStorage) LoadAccounts(ctx context.Context, accounts []models.Account) error {
	return loadTable(ctx, s, "accounts", accounts)
}

func (s *gormStorage) LoadTransactions(ctx context.Context, transactions []models.Transaction) error {
	return loadTable(ctx, s, "transactions", transactions)
}

// loadTable writes one record set in a single transaction. Under the replace
// strategy the table is emptied first; either way all rows commit together or
// none do.
func loadTable[R any](ctx context.Context, s *gormStorage, table string, rows []R) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.strategy == configs.StrategyReplace {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		if len(rows) == 0 {
			return nil
		}

		create := tx.Session(&gorm.Session{CreateBatchSize: insertBatchSize})
		if s.strategy == configs.StrategyAppend {
			create = create.Clauses(clause.OnConflict{DoNothing: true})
		}

		result := create.Create(&rows)
		if result.Error != nil {
			return result.Error
		}
		s.logger.WithFields(logrus.Fields{
			"table":    table,
			"rows":     len(rows),
			"inserted": result.RowsAffected,
		}).Info("loaded table")
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading %d rows into %s: %w", len(rows), table, err)
	}
	return nil
}

// FilterAccounts splits accounts into loadable rows and rows whose client_id
// does not exist in the loaded client set. Orphaned accounts must be excluded
// before LoadAccounts or the foreign key aborts the whole batch.
func FilterAccounts(accounts []models.Account, clients []models.Client) (valid, orphaned []models.Account) {
	known := make(map[string]struct{}, len(clients))
	for _, client := range clients {
		known[client.ClientID] = struct{}{}
	}

	for _, account := range accounts {
		if _, ok := known[account.ClientID]; ok {
			valid = append(valid, account)
		} else {
			orphaned = append(orphaned, account)
		}
	}
	return valid, orphaned
}
