// Package importer reads journal entries from CSV files and posts them
// through the ledger. Rows sharing a group key form one entry; the whole
// file is parsed before anything is posted, so a malformed file never
// posts a partial batch.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookkeep-dev/bookkeep/internal/ledger"
	"github.com/bookkeep-dev/bookkeep/internal/model"
)

// Header is the expected CSV header row.
const Header = "group,date,description,account,position,amount"

const (
	numFields  = 6
	dateFormat = "2006-01-02"
	colGroup   = 0
	colDate    = 1
	colDesc    = 2
	colAccount = 3
	colPos     = 4
	colAmount  = 5
)

// Read parses a CSV of journal lines into proposed entries, one per group
// key, in order of first appearance. Every row of a group must carry the
// same date and description.
func Read(r io.Reader) ([]ledger.CreateParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entries CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var order []string
	byGroup := make(map[string]*ledger.CreateParams)
	for i, rec := range records[1:] {
		row := i + 2

		group := rec[colGroup]
		if group == "" {
			return nil, fmt.Errorf("row %d: empty group", row)
		}

		date, err := time.Parse(dateFormat, rec[colDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", row, rec[colDate], err)
		}
		amount, err := decimal.NewFromString(rec[colAmount])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", row, rec[colAmount], err)
		}
		pos := model.Position(rec[colPos])
		if !pos.Valid() {
			return nil, fmt.Errorf("row %d: unknown position %q", row, rec[colPos])
		}

		p := byGroup[group]
		if p == nil {
			p = &ledger.CreateParams{Date: date, Description: rec[colDesc]}
			byGroup[group] = p
			order = append(order, group)
		} else if !p.Date.Equal(date) || p.Description != rec[colDesc] {
			return nil, fmt.Errorf("row %d: group %q mixes dates or descriptions", row, group)
		}

		line := ledger.Line{AccountNumber: rec[colAccount], Position: pos, Amount: amount}
		if pos == model.PositionDebit {
			p.Debits = append(p.Debits, line)
		} else {
			p.Credits = append(p.Credits, line)
		}
	}

	entries := make([]ledger.CreateParams, 0, len(order))
	for _, g := range order {
		entries = append(entries, *byGroup[g])
	}
	return entries, nil
}

// ReadFile parses the CSV at path.
func ReadFile(path string) ([]ledger.CreateParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Import posts the entries in order as userID and returns how many were
// posted. It stops at the first failure; entries already posted stay
// posted.
func Import(svc *ledger.Service, entries []ledger.CreateParams, userID string) (int, error) {
	for i, p := range entries {
		p.UserID = userID
		if _, err := svc.CreateEntry(p); err != nil {
			return i, fmt.Errorf("entry %d of %d: %w", i+1, len(entries), err)
		}
	}
	return len(entries), nil
}
