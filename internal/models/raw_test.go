package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRawTransactionDecoding(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantID     *int64
		wantAmount string
	}{
		{"numeric amount", `{"transaction_id": 1, "account_id": 2, "amount": 12.5}`, ptr(1), "12.5"},
		{"string amount", `{"transaction_id": 1, "account_id": 2, "amount": "12.5"}`, ptr(1), "12.5"},
		{"garbage amount", `{"transaction_id": 1, "account_id": 2, "amount": "abc"}`, ptr(1), "abc"},
		{"null amount", `{"transaction_id": 1, "account_id": 2, "amount": null}`, ptr(1), ""},
		{"missing id", `{"account_id": 2, "amount": 1}`, nil, "1"},
		{"null id", `{"transaction_id": null, "account_id": 2, "amount": 1}`, nil, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var record RawTransaction
			if err := json.Unmarshal([]byte(tt.body), &record); err != nil {
				t.Fatalf("Expected decoding to never fail, got %v", err)
			}
			if (record.TransactionID == nil) != (tt.wantID == nil) {
				t.Errorf("Expected id %v, got %v", tt.wantID, record.TransactionID)
			}
			if string(record.Amount) != tt.wantAmount {
				t.Errorf("Expected raw amount %q, got %q", tt.wantAmount, record.Amount)
			}
		})
	}
}

func TestRawAmountDecimal(t *testing.T) {
	if got := RawAmount("12.5").Decimal(); !got.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("Expected 12.5, got %s", got)
	}
	if got := RawAmount("abc").Decimal(); !got.IsZero() {
		t.Errorf("Expected zero for garbage, got %s", got)
	}
}

func TestRowZeroValueForMissingID(t *testing.T) {
	row := RawTransaction{AccountID: 5, Amount: "1"}.Row()
	if row.TransactionID != 0 {
		t.Errorf("Expected zero id, got %d", row.TransactionID)
	}
}

func ptr(v int64) *int64 { return &v }
