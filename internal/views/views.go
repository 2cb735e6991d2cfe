// Package views maintains the derived reporting views. Views have no storage
// of their own; every run redefines them with CREATE OR REPLACE, so
// publishing is idempotent.
package views

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type definition struct {
	name string
	ddl  string
}

// Definitions in dependency-free order; each is independent of the others.
var definitions = []definition{
	{
		// One row per client with at least one transaction. Inner joins
		// exclude clients whose accounts have no activity.
		name: "client_transaction_counts",
		ddl: `
CREATE OR REPLACE VIEW client_transaction_counts AS
SELECT c.client_id, COUNT(t.transaction_id) AS transaction_count
FROM clients c
JOIN accounts a ON a.client_id = c.client_id
JOIN transactions t ON t.account_id = a.account_id
GROUP BY c.client_id
ORDER BY c.client_id;`,
	},
	{
		// One row per calendar month and client email; month renders as the
		// first day of the month.
		name: "monthly_transaction_summary",
		ddl: `
CREATE OR REPLACE VIEW monthly_transaction_summary AS
SELECT to_char(date_trunc('month', t.timestamp), 'YYYY-MM-01') AS month,
       c.client_email,
       COUNT(t.transaction_id) AS transaction_count,
       SUM(t.amount) AS total_amount
FROM transactions t
JOIN accounts a ON t.account_id = a.account_id
JOIN clients c ON c.client_id = a.client_id
GROUP BY to_char(date_trunc('month', t.timestamp), 'YYYY-MM-01'), c.client_email
ORDER BY month, client_email;`,
	},
	{
		// Accounts with more than 2 transactions on a single calendar day.
		// Grouping is by day, not month, despite the neighboring view's
		// monthly granularity.
		name: "high_transaction_accounts",
		ddl: `
CREATE OR REPLACE VIEW high_transaction_accounts AS
SELECT to_char(date_trunc('day', t.timestamp), 'YYYY-MM-DD') AS date,
       t.account_id,
       COUNT(t.transaction_id) AS transaction_count
FROM transactions t
GROUP BY to_char(date_trunc('day', t.timestamp), 'YYYY-MM-DD'), t.account_id
HAVING COUNT(t.transaction_id) > 2
ORDER BY date, t.account_id;`,
	},
}

// Publisher (re)defines the reporting views on a Postgres handle.
type Publisher struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// New creates a view publisher.
func New(db *gorm.DB, logger *logrus.Logger) *Publisher {
	return &Publisher{db: db, logger: logger}
}

// PublishAll redefines all reporting views, overwriting any prior definition.
func (p *Publisher) PublishAll(ctx context.Context) error {
	for _, view := range definitions {
		if err := p.db.WithContext(ctx).Exec(view.ddl).Error; err != nil {
			return fmt.Errorf("creating view %s: %w", view.name, err)
		}
		p.logger.WithField("view", view.name).Info("published view")
	}
	return nil
}
