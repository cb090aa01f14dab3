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

	"github.com/kolofinance/kolo/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	loan        // Interface for loan-related operations
	account     // Interface for account-related operations
	entry       // Interface for accounting-entry operations
	posting     // Interface for posting-record operations
	delinquency // Interface for delinquency reference data
}

// loan defines methods for handling loans.
type loan interface {
	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)       // Creates a new loan
	GetLoanByID(ctx context.Context, id string) (*model.Loan, error)           // Retrieves a loan by ID
	GetAllLoans(ctx context.Context, limit, offset int) ([]model.Loan, error)  // Retrieves all loans
	GetOpenLoansWithBalance(ctx context.Context) ([]*model.Loan, error)        // Retrieves open, active loans with an outstanding balance
	UpdateLoanDelinquency(ctx context.Context, loan *model.Loan) error         // Persists a loan's recomputed delinquency state
	UpdateLoanRepayment(ctx context.Context, loan *model.Loan) error           // Persists a loan's payment fields after a refund
	SoftDeleteLoan(ctx context.Context, id string) error                       // Marks a loan deleted without removing the row
}

// account defines methods for handling ledger accounts.
type account interface {
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)            // Creates a new account
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)                      // Retrieves an account by ID
	GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error)             // Retrieves all accounts
	GetTellerAccount(ctx context.Context, branchID string) (*model.Account, error)              // Retrieves the teller account of a branch
	GetProductAccount(ctx context.Context, productID, branchID string) (*model.Account, error)  // Retrieves the ledger account of a product in a branch
	GetLiaisonAccount(ctx context.Context, branchID string) (*model.Account, error)             // Retrieves the liaison account of a branch
	GetCommissionAccount(ctx context.Context, eventCode, branchID string) (*model.Account, error) // Retrieves the commission account for an amount event
	GetFeeAccount(ctx context.Context, eventCode, branchID string) (*model.Account, error)      // Retrieves the fee account for a special-fee event
}

// entry defines methods for handling accounting entries.
type entry interface {
	RecordEntries(ctx context.Context, entries []*model.AccountingEntry) error                     // Persists a validated batch of entries atomically
	GetEntriesByReference(ctx context.Context, reference string) ([]*model.AccountingEntry, error) // Retrieves entries by transaction reference
	GetAllEntries(ctx context.Context, limit, offset int) ([]model.AccountingEntry, error)         // Retrieves all entries
}

// posting defines methods for handling posting status records.
type posting interface {
	RecordPostingRecords(ctx context.Context, records []*model.PostingRecord) error                           // Persists the per-command status records of a batch
	UpdatePostingRecordStatus(ctx context.Context, recordID string, status model.PostingStatus, lastError string) error // Updates one record after processing or retry
	GetPostingRecordsByStatus(ctx context.Context, statuses []model.PostingStatus, limit int) ([]*model.PostingRecord, error) // Retrieves records awaiting retry
}

// delinquency defines methods for delinquency reference data.
type delinquency interface {
	GetDelinquencyBrackets(ctx context.Context) ([]model.DelinquencyBracket, error) // Retrieves the day-count penalty brackets
}
