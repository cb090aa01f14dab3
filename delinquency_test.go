package kolo

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/internal/identity"
	"github.com/kolofinance/kolo/model"
)

func stubIdentityService(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder("POST", "http://identity.test/api/authentication/login",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"bearer_token": "tkn_test"}))
}

func getOverdueLoanMock(member string) *model.Loan {
	// Three months on the book with a one-month grace period: two months
	// delinquent regardless of the day the test runs.
	return &model.Loan{
		MemberReference: member,
		BranchID:        homeBranch,
		LoanAmount:      decimal.NewFromInt(120000),
		Balance:         decimal.NewFromInt(120000),
		Principal:       decimal.NewFromInt(120000),
		InterestRate:    decimal.NewFromInt(2),
		DurationMonths:  12,
		LoanDate:        time.Now().AddDate(0, -3, 0),
		Status:          model.LoanStatusOpen,
		State:           model.StateActive,
	}
}

func TestProcessAllLoans(t *testing.T) {
	stubIdentityService(t)

	ds := newMockDataSource()
	ds.brackets = []model.DelinquencyBracket{{ConfigID: "cfg_any", MinDays: 1, MaxDays: 100000}}

	overdue := ds.addLoan(getOverdueLoanMock("MBR-101"))

	current := getOverdueLoanMock("MBR-102")
	current.LoanDate = time.Now()
	ds.addLoan(current)

	processedToday := getOverdueLoanMock("MBR-103")
	processedToday.LastProcessedDate = time.Now()
	ds.addLoan(processedToday)

	k := newTestKolo(ds)
	k.identity = identity.NewClient(config.IdentityConfig{Url: "http://identity.test", Email: "svc@kolo.test", Password: "secret", Timeout: 1})

	summary, err := k.ProcessAllLoans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	assert.True(t, overdue.IsDelinquent)
	assert.Equal(t, model.DelinquencyDelinquent, overdue.DelinquencyStatus)
	assert.Greater(t, overdue.DelinquentDays, 0)
	assert.True(t, overdue.DelinquentAmount.IsPositive())
	assert.True(t, overdue.DelinquentInterest.IsPositive())
	assert.Equal(t, "cfg_any", overdue.DelinquencyConfig)
	assert.Equal(t, model.DateOnly(time.Now()), overdue.LastProcessedDate)

	assert.False(t, current.IsDelinquent)
	assert.Equal(t, model.DelinquencyCurrent, current.DelinquencyStatus)
}

func TestProcessAllLoansIsIdempotentWithinDay(t *testing.T) {
	stubIdentityService(t)

	ds := newMockDataSource()
	overdue := ds.addLoan(getOverdueLoanMock("MBR-104"))

	k := newTestKolo(ds)
	k.identity = identity.NewClient(config.IdentityConfig{Url: "http://identity.test", Timeout: 1})

	first, err := k.ProcessAllLoans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Processed)
	daysAfterFirst := overdue.DelinquentDays

	second, err := k.ProcessAllLoans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, daysAfterFirst, overdue.DelinquentDays)
}

func TestProcessAllLoansSkipsRunOnAuthFailure(t *testing.T) {
	ds := newMockDataSource()
	ds.addLoan(getOverdueLoanMock("MBR-105"))

	// No identity service configured: the run is skipped, not failed.
	k := newTestKolo(ds)

	summary, err := k.ProcessAllLoans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Processed)
	assert.NotEmpty(t, summary.Message)
}

func TestProcessAllLoansIgnoresClosedAndDeletedLoans(t *testing.T) {
	stubIdentityService(t)

	ds := newMockDataSource()
	closed := getOverdueLoanMock("MBR-106")
	closed.Status = model.LoanStatusClosed
	ds.addLoan(closed)

	deleted := getOverdueLoanMock("MBR-107")
	deleted.State = model.StateDeleted
	ds.addLoan(deleted)

	k := newTestKolo(ds)
	k.identity = identity.NewClient(config.IdentityConfig{Url: "http://identity.test", Timeout: 1})

	summary, err := k.ProcessAllLoans(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.False(t, closed.IsDelinquent)
	assert.False(t, deleted.IsDelinquent)
}
