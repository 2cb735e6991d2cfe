// Package models defines the domain models used across the import job.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a single row of the clients table. Clients are created by
// the source system; the import job only reads and loads them verbatim.
type Client struct {
	// ClientID is the unique identifier assigned by the source system.
	ClientID string `gorm:"column:client_id;primaryKey;size:50" json:"client_id"`

	// ClientName is the client's display name.
	ClientName string `gorm:"column:client_name;size:50" json:"client_name"`

	// ClientEmail is the client's contact address.
	ClientEmail string `gorm:"column:client_email;size:40" json:"client_email"`

	// ClientBirthDate is optional; nil maps to a NULL date column.
	ClientBirthDate *time.Time `gorm:"column:client_birth_date;type:date" json:"client_birth_date"`
}

func (Client) TableName() string { return "clients" }

// Account links an account number to its owning client.
type Account struct {
	AccountID int64  `gorm:"column:account_id;primaryKey" json:"account_id"`
	ClientID  string `gorm:"column:client_id;size:50" json:"client_id"`
}

func (Account) TableName() string { return "accounts" }

// Transaction represents a single row of the transactions table, normalized
// from the raw API format by the cleaner.
type Transaction struct {
	TransactionID int64           `gorm:"column:transaction_id;primaryKey" json:"transaction_id"`
	Timestamp     time.Time       `gorm:"column:timestamp" json:"timestamp"`
	AccountID     int64           `gorm:"column:account_id" json:"account_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(10,2)" json:"amount"`
	Type          string          `gorm:"column:type;size:5" json:"type"`
	Medium        string          `gorm:"column:medium;size:10" json:"medium"`
}

func (Transaction) TableName() string { return "transactions" }
