/*
Copyright 2024 Kolo Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kolofinance/kolo/model"
)

// RecordEntries persists a batch of accounting entries inside one SQL
// transaction. The batch is all-or-nothing: callers run the double-entry rule
// first and nothing is written when any insert fails.
func (d Datasource) RecordEntries(ctx context.Context, entries []*model.AccountingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting entry batch transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounting_entries (entry_id, source_account_id,
			destination_account_id, amount, transaction_reference, branch_id,
			narration, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "preparing entry insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		_, err = stmt.ExecContext(ctx, e.EntryID, e.SourceAccountID,
			e.DestinationAccountID, e.Amount, e.TransactionReference, e.BranchID,
			e.Narration, e.TransactionDate, e.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "inserting entry %s", e.EntryID)
		}
	}

	return tx.Commit()
}

// GetEntriesByReference retrieves every entry posted under one transaction
// reference, in insertion order.
func (d Datasource) GetEntriesByReference(ctx context.Context, reference string) ([]*model.AccountingEntry, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT entry_id, source_account_id, destination_account_id, amount,
			transaction_reference, branch_id, narration, transaction_date, created_at
		FROM accounting_entries WHERE transaction_reference = $1 ORDER BY id
	`, reference)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*model.AccountingEntry
	for rows.Next() {
		e := model.AccountingEntry{}
		err := rows.Scan(&e.EntryID, &e.SourceAccountID, &e.DestinationAccountID,
			&e.Amount, &e.TransactionReference, &e.BranchID, &e.Narration,
			&e.TransactionDate, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// GetAllEntries retrieves entries, newest first.
func (d Datasource) GetAllEntries(ctx context.Context, limit, offset int) ([]model.AccountingEntry, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT entry_id, source_account_id, destination_account_id, amount,
			transaction_reference, branch_id, narration, transaction_date, created_at
		FROM accounting_entries ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []model.AccountingEntry
	for rows.Next() {
		e := model.AccountingEntry{}
		err := rows.Scan(&e.EntryID, &e.SourceAccountID, &e.DestinationAccountID,
			&e.Amount, &e.TransactionReference, &e.BranchID, &e.Narration,
			&e.TransactionDate, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
