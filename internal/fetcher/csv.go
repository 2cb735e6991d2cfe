package fetcher

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"zylyty/importer/internal/models"
	"zylyty/importer/utils"
)

// columnIndex maps CSV header names to their positions so column order in the
// exports can change without breaking the import.
type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

func (idx columnIndex) value(record []string, column string) (string, error) {
	i, ok := idx[column]
	if !ok {
		return "", fmt.Errorf("missing column %q", column)
	}
	if i >= len(record) {
		return "", fmt.Errorf("row too short for column %q", column)
	}
	return record[i], nil
}

func parseClientsCSV(body []byte) ([]models.Client, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := indexColumns(header)

	var clients []models.Client
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var client models.Client
		if client.ClientID, err = idx.value(record, "client_id"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if client.ClientName, err = idx.value(record, "client_name"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if client.ClientEmail, err = idx.value(record, "client_email"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		birthDate, err := idx.value(record, "client_birth_date")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if client.ClientBirthDate, err = utils.ParseDate(birthDate); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		clients = append(clients, client)
	}
	return clients, nil
}

func parseAccountsCSV(body []byte) ([]models.Account, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := indexColumns(header)

	var accounts []models.Account
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rawID, err := idx.value(record, "account_id")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		accountID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad account_id %q", line, rawID)
		}
		clientID, err := idx.value(record, "client_id")
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		accounts = append(accounts, models.Account{AccountID: accountID, ClientID: clientID})
	}
	return accounts, nil
}
