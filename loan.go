package kolo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/model"
)

// CreateLoan records a new loan on the book. Balance is derived from the
// amount and anything already paid; status and lifecycle state default to
// open and active.
func (k *Kolo) CreateLoan(ctx context.Context, loan model.Loan, user *model.UserInfo) (model.Loan, error) {
	created, err := k.datasource.CreateLoan(ctx, loan)
	if err != nil {
		return model.Loan{}, err
	}
	k.audit.LogAndAudit(ctx, userToken(user), "CreateLoan", userName(user), created,
		fmt.Sprintf("loan %s created for member %s", created.LoanID, created.MemberReference),
		audit.LevelInfo, http.StatusCreated)
	return created, nil
}

func (k *Kolo) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	return k.datasource.GetLoanByID(ctx, id)
}

func (k *Kolo) GetAllLoans(ctx context.Context, limit, offset int) ([]model.Loan, error) {
	return k.datasource.GetAllLoans(ctx, limit, offset)
}

// SoftDeleteLoan retires a loan without removing its row. Deleted loans are
// invisible to lookups and to the delinquency batch but keep their history.
func (k *Kolo) SoftDeleteLoan(ctx context.Context, id string, user *model.UserInfo) error {
	if err := k.datasource.SoftDeleteLoan(ctx, id); err != nil {
		return err
	}
	k.audit.LogAndAudit(ctx, userToken(user), "SoftDeleteLoan", userName(user), id,
		fmt.Sprintf("loan %s marked deleted", id), audit.LevelWarning, http.StatusOK)
	return nil
}

// RunDelinquencyNow triggers the daily batch outside its schedule, under the
// same run lock the scheduler uses.
func (k *Kolo) RunDelinquencyNow(ctx context.Context, user *model.UserInfo) (*DelinquencyRunSummary, error) {
	locker := newDelinquencyLocker(k)
	if err := locker.Lock(ctx, delinquencyLockTTL); err != nil {
		return nil, err
	}
	defer locker.Unlock(ctx) //nolint:errcheck

	summary, err := k.ProcessAllLoans(ctx)
	if err != nil {
		return nil, err
	}
	k.audit.LogAndAudit(ctx, userToken(user), "RunDelinquencyNow", userName(user), summary,
		"manual delinquency run complete", audit.LevelInfo, http.StatusOK)
	return summary, nil
}
