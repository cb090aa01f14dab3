package kolo

import (
	"context"
	"fmt"
	"sync"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/apierror"
	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/internal/identity"
	"github.com/kolofinance/kolo/internal/loanapp"
	"github.com/kolofinance/kolo/model"
)

// mockDataSource is an in-memory stand-in for the relational datasource.
// Accounts are resolved with the same kind/branch/product/event criteria the
// SQL layer uses, which is what the posting pipeline exercises.
type mockDataSource struct {
	mu       sync.Mutex
	loans    map[string]*model.Loan
	accounts []*model.Account
	entries  []*model.AccountingEntry
	records  map[string]*model.PostingRecord
	brackets []model.DelinquencyBracket

	failRecordEntries bool
}

func newMockDataSource() *mockDataSource {
	return &mockDataSource{
		loans:   make(map[string]*model.Loan),
		records: make(map[string]*model.PostingRecord),
	}
}

func (m *mockDataSource) addAccount(a *model.Account) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.AccountID == "" {
		a.AccountID = model.GenerateUUIDWithSuffix("acc")
	}
	m.accounts = append(m.accounts, a)
	return a
}

func (m *mockDataSource) addLoan(l *model.Loan) *model.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.LoanID == "" {
		l.LoanID = model.GenerateUUIDWithSuffix("lon")
	}
	m.loans[l.LoanID] = l
	return l
}

func (m *mockDataSource) CreateLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	loan.LoanID = model.GenerateUUIDWithSuffix("lon")
	loan.Balance = loan.LoanAmount.Sub(loan.Paid)
	loan.Status = model.LoanStatusOpen
	loan.State = model.StateActive
	m.addLoan(&loan)
	return loan, nil
}

func (m *mockDataSource) GetLoanByID(_ context.Context, id string) (*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loans[id]; ok && l.State != model.StateDeleted {
		// hand out a copy, like a row scan would
		copied := *l
		return &copied, nil
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("loan %s not found", id), nil)
}

func (m *mockDataSource) GetAllLoans(_ context.Context, _, _ int) ([]model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Loan
	for _, l := range m.loans {
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockDataSource) GetOpenLoansWithBalance(_ context.Context) ([]*model.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Loan
	for _, l := range m.loans {
		if l.Status == model.LoanStatusOpen && l.State == model.StateActive && l.Outstanding() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockDataSource) UpdateLoanDelinquency(_ context.Context, loan *model.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.LoanID] = loan
	return nil
}

func (m *mockDataSource) UpdateLoanRepayment(_ context.Context, loan *model.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *loan
	m.loans[loan.LoanID] = &copied
	return nil
}

func (m *mockDataSource) SoftDeleteLoan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loans[id]; ok {
		l.State = model.StateDeleted
		return nil
	}
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("loan %s not found", id), nil)
}

func (m *mockDataSource) CreateAccount(_ context.Context, account model.Account) (model.Account, error) {
	account.AccountID = model.GenerateUUIDWithSuffix("acc")
	account.State = model.StateActive
	m.addAccount(&account)
	return account, nil
}

func (m *mockDataSource) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.AccountID == id {
			return a, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("account %s not found", id), nil)
}

func (m *mockDataSource) GetAllAccounts(_ context.Context, _, _ int) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockDataSource) findAccount(kind model.AccountKind, match func(*model.Account) bool, notFound string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Kind == kind && a.State == model.StateActive && match(a) {
			return a, nil
		}
	}
	return nil, apierror.NewAPIError(apierror.ErrNotFound, notFound, nil)
}

func (m *mockDataSource) GetTellerAccount(_ context.Context, branchID string) (*model.Account, error) {
	return m.findAccount(model.AccountKindTeller, func(a *model.Account) bool {
		return a.BranchID == branchID
	}, fmt.Sprintf("no teller account in branch %s", branchID))
}

func (m *mockDataSource) GetProductAccount(_ context.Context, productID, branchID string) (*model.Account, error) {
	return m.findAccount(model.AccountKindProduct, func(a *model.Account) bool {
		return a.ProductID == productID && a.BranchID == branchID
	}, fmt.Sprintf("no account for product %s in branch %s", productID, branchID))
}

func (m *mockDataSource) GetLiaisonAccount(_ context.Context, branchID string) (*model.Account, error) {
	return m.findAccount(model.AccountKindLiaison, func(a *model.Account) bool {
		return a.BranchID == branchID
	}, fmt.Sprintf("no liaison account in branch %s", branchID))
}

func (m *mockDataSource) GetCommissionAccount(_ context.Context, eventCode, branchID string) (*model.Account, error) {
	return m.findAccount(model.AccountKindCommission, func(a *model.Account) bool {
		return a.EventCode == eventCode && a.BranchID == branchID
	}, fmt.Sprintf("no commission account for event %s in branch %s", eventCode, branchID))
}

func (m *mockDataSource) GetFeeAccount(_ context.Context, eventCode, branchID string) (*model.Account, error) {
	return m.findAccount(model.AccountKindFee, func(a *model.Account) bool {
		return a.EventCode == eventCode && a.BranchID == branchID
	}, fmt.Sprintf("no fee account for event %s in branch %s", eventCode, branchID))
}

func (m *mockDataSource) RecordEntries(_ context.Context, entries []*model.AccountingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecordEntries {
		return fmt.Errorf("storage unavailable")
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockDataSource) GetEntriesByReference(_ context.Context, reference string) ([]*model.AccountingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccountingEntry
	for _, e := range m.entries {
		if e.TransactionReference == reference {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockDataSource) GetAllEntries(_ context.Context, _, _ int) ([]model.AccountingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AccountingEntry
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockDataSource) RecordPostingRecords(_ context.Context, records []*model.PostingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.RecordID] = r
	}
	return nil
}

func (m *mockDataSource) UpdatePostingRecordStatus(_ context.Context, recordID string, status model.PostingStatus, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[recordID]; ok {
		r.Status = status
		r.LastError = lastError
		return nil
	}
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("posting record %s not found", recordID), nil)
}

func (m *mockDataSource) GetPostingRecordsByStatus(_ context.Context, statuses []model.PostingStatus, limit int) ([]*model.PostingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PostingRecord
	for _, r := range m.records {
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockDataSource) GetDelinquencyBrackets(_ context.Context) ([]model.DelinquencyBracket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brackets, nil
}

func newTestKolo(ds *mockDataSource) *Kolo {
	config.MockConfig(&config.Configuration{
		Delinquency: config.DelinquencyConfig{RunHour: 2, GraceMonths: 1},
	})
	return &Kolo{
		datasource: ds,
		identity:   identity.NewClient(config.IdentityConfig{}),
		audit:      audit.NewClient(config.AuditConfig{}),
		loanapp:    loanapp.NewClient(config.LoanApplicationConfig{}),
	}
}
