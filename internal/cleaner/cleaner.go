// Package cleaner normalizes raw transaction records before they are loaded.
package cleaner

import (
	"zylyty/importer/internal/models"
)

type dedupKey struct {
	transactionID int64
	accountID     int64
}

// Clean deduplicates and normalizes a raw transaction record set:
//
//  1. Records with a missing or null transaction_id are dropped; an
//     unidentifiable transaction cannot be deduplicated or safely loaded.
//  2. Records are deduplicated on (transaction_id, account_id), keeping the
//     first occurrence in fetch order.
//  3. Amounts are rewritten to their canonical decimal form; anything
//     unparseable becomes zero instead of rejecting the record.
//
// Clean is pure and total: it never fails and is idempotent, so cleaning an
// already-clean set is a no-op.
func Clean(records []models.RawTransaction) []models.RawTransaction {
	seen := make(map[dedupKey]struct{}, len(records))
	cleaned := make([]models.RawTransaction, 0, len(records))

	for _, record := range records {
		if record.TransactionID == nil {
			continue
		}
		key := dedupKey{*record.TransactionID, record.AccountID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		record.Amount = models.RawAmount(record.Amount.Decimal().String())
		cleaned = append(cleaned, record)
	}

	return cleaned
}

// Rows converts a cleaned record set into transactions table rows.
func Rows(records []models.RawTransaction) []models.Transaction {
	rows := make([]models.Transaction, len(records))
	for i, record := range records {
		rows[i] = record.Row()
	}
	return rows
}
