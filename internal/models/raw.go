package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"zylyty/importer/utils"
)

// RawAmount holds a transaction amount exactly as the API sent it. The
// endpoint is known to return amounts as bare numbers, quoted strings, or
// garbage, so decoding must never fail; coercion happens in the cleaner.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*a = ""
		return nil
	}
	*a = RawAmount(strings.Trim(s, `"`))
	return nil
}

// Decimal parses the amount, substituting zero for anything unparseable.
func (a RawAmount) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RawTransaction is one record of the paginated transactions endpoint before
// cleaning. TransactionID is a pointer so that missing and null ids are
// distinguishable from a literal zero.
type RawTransaction struct {
	TransactionID *int64    `json:"transaction_id"`
	Timestamp     string    `json:"timestamp"`
	AccountID     int64     `json:"account_id"`
	Amount        RawAmount `json:"amount"`
	Type          string    `json:"type"`
	Medium        string    `json:"medium"`
}

// Row converts a cleaned record into its transactions table row. Timestamps
// the parser does not recognize load as the zero time rather than dropping
// the record.
func (r RawTransaction) Row() Transaction {
	var id int64
	if r.TransactionID != nil {
		id = *r.TransactionID
	}
	ts, _ := utils.ParseTimestamp(r.Timestamp)
	return Transaction{
		TransactionID: id,
		Timestamp:     ts,
		AccountID:     r.AccountID,
		Amount:        r.Amount.Decimal(),
		Type:          r.Type,
		Medium:        r.Medium,
	}
}
