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

const loanColumns = `
	loan_id, application_id, member_reference, branch_id, loan_amount, paid,
	balance, principal, interest_rate, duration_months, loan_date,
	last_refund_date, delinquent_days, delinquent_amount, delinquent_interest,
	is_delinquent, delinquency_status, delinquency_config_id, advanced_payment,
	last_processed_date, status, state, created_at, meta_data`

// CreateLoan inserts a new Loan into the database. The balance is derived
// from the loan amount and the paid amount, never taken from the caller.
func (d Datasource) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	metaDataJSON, err := json.Marshal(loan.MetaData)
	if err != nil {
		return loan, err
	}

	loan.LoanID = model.GenerateUUIDWithSuffix("lon")
	loan.Balance = loan.LoanAmount.Sub(loan.Paid)
	if loan.Status == "" {
		loan.Status = model.LoanStatusOpen
	}
	if loan.State == "" {
		loan.State = model.StateActive
	}
	if loan.DelinquencyStatus == "" {
		loan.DelinquencyStatus = model.DelinquencyCurrent
	}
	loan.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO loans (loan_id, application_id, member_reference, branch_id,
			loan_amount, paid, balance, principal, interest_rate, duration_months,
			loan_date, last_refund_date, delinquent_days, delinquent_amount,
			delinquent_interest, is_delinquent, delinquency_status,
			delinquency_config_id, advanced_payment, last_processed_date, status,
			state, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
	`, loan.LoanID, loan.ApplicationID, loan.MemberReference, loan.BranchID,
		loan.LoanAmount, loan.Paid, loan.Balance, loan.Principal, loan.InterestRate,
		loan.DurationMonths, loan.LoanDate, nullableDate(loan.LastRefundDate),
		loan.DelinquentDays, loan.DelinquentAmount, loan.DelinquentInterest,
		loan.IsDelinquent, loan.DelinquencyStatus, loan.DelinquencyConfig,
		loan.AdvancedPayment, nullableDate(loan.LastProcessedDate), loan.Status,
		loan.State, loan.CreatedAt, metaDataJSON)

	return loan, err
}

// GetLoanByID retrieves a loan by its ID.
func (d Datasource) GetLoanByID(ctx context.Context, id string) (*model.Loan, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM loans WHERE loan_id = $1`, loanColumns), id)

	loan, err := scanLoanRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("loan with ID '%s' not found", id), err)
		}
		return nil, err
	}
	return loan, nil
}

// GetAllLoans retrieves active loans, newest first.
func (d Datasource) GetAllLoans(ctx context.Context, limit, offset int) ([]model.Loan, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM loans WHERE state = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, loanColumns),
		model.StateActive, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var loans []model.Loan
	for rows.Next() {
		loan, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

// GetOpenLoansWithBalance retrieves every open, active loan that still
// carries an outstanding balance. This is the working set of the daily
// delinquency batch; each loan is processed and saved independently, so the
// rows are read without any row locking.
func (d Datasource) GetOpenLoansWithBalance(ctx context.Context) ([]*model.Loan, error) {
	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM loans
		WHERE status = $1 AND state = $2 AND loan_amount - paid > 0
		ORDER BY loan_date`, loanColumns),
		model.LoanStatusOpen, model.StateActive)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var loans []*model.Loan
	for rows.Next() {
		loan, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// UpdateLoanDelinquency persists the delinquency fields recomputed by the
// daily batch for a single loan.
func (d Datasource) UpdateLoanDelinquency(ctx context.Context, loan *model.Loan) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE loans SET
			delinquent_days = $2,
			delinquent_amount = $3,
			delinquent_interest = $4,
			is_delinquent = $5,
			delinquency_status = $6,
			delinquency_config_id = $7,
			advanced_payment = $8,
			duration_months = $9,
			last_processed_date = $10
		WHERE loan_id = $1
	`, loan.LoanID, loan.DelinquentDays, loan.DelinquentAmount,
		loan.DelinquentInterest, loan.IsDelinquent, loan.DelinquencyStatus,
		loan.DelinquencyConfig, loan.AdvancedPayment, loan.DurationMonths,
		nullableDate(loan.LastProcessedDate))
	if err != nil {
		return err
	}
	return requireOneRow(result, "loan", loan.LoanID)
}

// UpdateLoanRepayment persists the payment fields after a refund is applied.
func (d Datasource) UpdateLoanRepayment(ctx context.Context, loan *model.Loan) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE loans SET
			paid = $2,
			balance = $3,
			advanced_payment = $4,
			last_refund_date = $5,
			status = $6
		WHERE loan_id = $1
	`, loan.LoanID, loan.Paid, loan.Balance, loan.AdvancedPayment, nullableDate(loan.LastRefundDate), loan.Status)
	if err != nil {
		return err
	}
	return requireOneRow(result, "loan", loan.LoanID)
}

// SoftDeleteLoan marks a loan deleted. Rows are never physically removed.
func (d Datasource) SoftDeleteLoan(ctx context.Context, id string) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE loans SET state = $2 WHERE loan_id = $1
	`, id, model.StateDeleted)
	if err != nil {
		return err
	}
	return requireOneRow(result, "loan", id)
}

// GetDelinquencyBrackets retrieves the read-only penalty brackets, ordered by
// their lower bound.
func (d Datasource) GetDelinquencyBrackets(ctx context.Context) ([]model.DelinquencyBracket, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT config_id, min_days, max_days FROM delinquency_brackets ORDER BY min_days
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var brackets []model.DelinquencyBracket
	for rows.Next() {
		var b model.DelinquencyBracket
		if err := rows.Scan(&b.ConfigID, &b.MinDays, &b.MaxDays); err != nil {
			return nil, err
		}
		brackets = append(brackets, b)
	}
	return brackets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoanRow(row rowScanner) (*model.Loan, error) {
	loan := model.Loan{}
	var metaDataJSON []byte
	var applicationID, configID sql.NullString
	var lastRefund, lastProcessed sql.NullTime

	err := row.Scan(
		&loan.LoanID, &applicationID, &loan.MemberReference, &loan.BranchID,
		&loan.LoanAmount, &loan.Paid, &loan.Balance, &loan.Principal,
		&loan.InterestRate, &loan.DurationMonths, &loan.LoanDate, &lastRefund,
		&loan.DelinquentDays, &loan.DelinquentAmount, &loan.DelinquentInterest,
		&loan.IsDelinquent, &loan.DelinquencyStatus, &configID,
		&loan.AdvancedPayment, &lastProcessed, &loan.Status, &loan.State,
		&loan.CreatedAt, &metaDataJSON,
	)
	if err != nil {
		return nil, err
	}

	loan.ApplicationID = applicationID.String
	loan.DelinquencyConfig = configID.String
	if lastRefund.Valid {
		loan.LastRefundDate = lastRefund.Time
	}
	if lastProcessed.Valid {
		loan.LastProcessedDate = lastProcessed.Time
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &loan.MetaData); err != nil {
			return nil, err
		}
	}
	return &loan, nil
}

// nullableDate maps a zero time to SQL NULL. Zero is the sentinel for "never
// happened" on refund and processing dates.
func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func requireOneRow(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("%s with ID '%s' not found", entity, id), nil)
	}
	return nil
}
