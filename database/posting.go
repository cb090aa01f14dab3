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
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kolofinance/kolo/model"
)

// RecordPostingRecords persists the per-command status records of a bulk
// batch in one transaction.
func (d Datasource) RecordPostingRecords(ctx context.Context, records []*model.PostingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting posting record transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posting_records (record_id, batch_id, command, status,
			last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "preparing posting record insert")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, r := range records {
		commandJSON, err := json.Marshal(r.Command)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "serializing command for record %s", r.RecordID)
		}
		r.CreatedAt = now
		r.UpdatedAt = now
		_, err = stmt.ExecContext(ctx, r.RecordID, r.BatchID, commandJSON,
			r.Status, r.LastError, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "inserting posting record %s", r.RecordID)
		}
	}

	return tx.Commit()
}

// UpdatePostingRecordStatus marks one record Completed or Error after a
// processing attempt.
func (d Datasource) UpdatePostingRecordStatus(ctx context.Context, recordID string, status model.PostingStatus, lastError string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE posting_records SET status = $2, last_error = $3, updated_at = $4
		WHERE record_id = $1
	`, recordID, status, lastError, time.Now())
	if err != nil {
		return err
	}
	return requireOneRow(result, "posting record", recordID)
}

// GetPostingRecordsByStatus retrieves records in any of the given statuses,
// oldest first, for the retry orchestrator.
func (d Datasource) GetPostingRecordsByStatus(ctx context.Context, statuses []model.PostingStatus, limit int) ([]*model.PostingRecord, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT record_id, batch_id, command, status, last_error, created_at, updated_at
		FROM posting_records WHERE status = ANY($1) ORDER BY created_at LIMIT $2
	`, pq.Array(statusStrings), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*model.PostingRecord
	for rows.Next() {
		r := model.PostingRecord{}
		var commandJSON []byte
		var lastError sql.NullString
		err := rows.Scan(&r.RecordID, &r.BatchID, &commandJSON, &r.Status,
			&lastError, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, err
		}
		r.LastError = lastError.String
		if err := json.Unmarshal(commandJSON, &r.Command); err != nil {
			return nil, errors.Wrapf(err, "decoding command for record %s", r.RecordID)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
