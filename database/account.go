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
	"fmt"
	"time"

	"github.com/kolofinance/kolo/internal/apierror"
	"github.com/kolofinance/kolo/model"
)

const accountColumns = `
	account_id, name, number, kind, product_id, event_code, branch_id,
	currency, balance, state, created_at, meta_data`

// CreateAccount inserts a new Account into the database.
func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	metaDataJSON, err := json.Marshal(account.MetaData)
	if err != nil {
		return account, err
	}

	account.AccountID = model.GenerateUUIDWithSuffix("acc")
	if account.State == "" {
		account.State = model.StateActive
	}
	account.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO accounts (account_id, name, number, kind, product_id,
			event_code, branch_id, currency, balance, state, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, account.AccountID, account.Name, account.Number, account.Kind,
		account.ProductID, account.EventCode, account.BranchID, account.Currency,
		account.Balance, account.State, account.CreatedAt, metaDataJSON)

	return account, err
}

// GetAccountByID retrieves an account by its ID.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts WHERE account_id = $1`, accountColumns), id)
	return scanAccountRow(row, fmt.Sprintf("account with ID '%s' not found", id))
}

// GetAllAccounts retrieves active accounts, newest first.
func (d Datasource) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts WHERE state = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountColumns),
		model.StateActive, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// GetTellerAccount retrieves the teller account of a branch.
func (d Datasource) GetTellerAccount(ctx context.Context, branchID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE kind = $1 AND branch_id = $2 AND state = $3`, accountColumns),
		model.AccountKindTeller, branchID, model.StateActive)
	return scanAccountRow(row, fmt.Sprintf("no teller account for branch '%s'", branchID))
}

// GetProductAccount retrieves the ledger account backing a product in a branch.
func (d Datasource) GetProductAccount(ctx context.Context, productID, branchID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE kind = $1 AND product_id = $2 AND branch_id = $3 AND state = $4`, accountColumns),
		model.AccountKindProduct, productID, branchID, model.StateActive)
	return scanAccountRow(row, fmt.Sprintf("no product account for product '%s' in branch '%s'", productID, branchID))
}

// GetLiaisonAccount retrieves the liaison account that bridges a branch's
// books on inter-branch transfers.
func (d Datasource) GetLiaisonAccount(ctx context.Context, branchID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE kind = $1 AND branch_id = $2 AND state = $3`, accountColumns),
		model.AccountKindLiaison, branchID, model.StateActive)
	return scanAccountRow(row, fmt.Sprintf("no liaison account for branch '%s'", branchID))
}

// GetCommissionAccount retrieves the commission account for an amount event.
func (d Datasource) GetCommissionAccount(ctx context.Context, eventCode, branchID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE kind = $1 AND event_code = $2 AND branch_id = $3 AND state = $4`, accountColumns),
		model.AccountKindCommission, eventCode, branchID, model.StateActive)
	return scanAccountRow(row, fmt.Sprintf("no commission account for event '%s' in branch '%s'", eventCode, branchID))
}

// GetFeeAccount retrieves the fee account for a special-fee event.
func (d Datasource) GetFeeAccount(ctx context.Context, eventCode, branchID string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE kind = $1 AND event_code = $2 AND branch_id = $3 AND state = $4`, accountColumns),
		model.AccountKindFee, eventCode, branchID, model.StateActive)
	return scanAccountRow(row, fmt.Sprintf("no fee account for event '%s' in branch '%s'", eventCode, branchID))
}

func scanAccountRow(row *sql.Row, notFoundMsg string) (*model.Account, error) {
	account, err := scanAccountRows(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, notFoundMsg, err)
		}
		return nil, err
	}
	return account, nil
}

func scanAccountRows(row rowScanner) (*model.Account, error) {
	account := model.Account{}
	var metaDataJSON []byte
	var productID, eventCode sql.NullString

	err := row.Scan(
		&account.AccountID, &account.Name, &account.Number, &account.Kind,
		&productID, &eventCode, &account.BranchID, &account.Currency,
		&account.Balance, &account.State, &account.CreatedAt, &metaDataJSON,
	)
	if err != nil {
		return nil, err
	}

	account.ProductID = productID.String
	account.EventCode = eventCode.String
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &account.MetaData); err != nil {
			return nil, err
		}
	}
	return &account, nil
}
