package kolo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/model"
)

// CreateAccount registers a ledger account. Posting resolution finds accounts
// by kind plus branch (and product or event code), so those fields must be
// set correctly here for the account to ever receive an entry.
func (k *Kolo) CreateAccount(ctx context.Context, account model.Account, user *model.UserInfo) (model.Account, error) {
	created, err := k.datasource.CreateAccount(ctx, account)
	if err != nil {
		return model.Account{}, err
	}
	k.audit.LogAndAudit(ctx, userToken(user), "CreateAccount", userName(user), created,
		fmt.Sprintf("account %s (%s) created in branch %s", created.AccountID, created.Kind, created.BranchID),
		audit.LevelInfo, http.StatusCreated)
	return created, nil
}

func (k *Kolo) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return k.datasource.GetAccountByID(ctx, id)
}

func (k *Kolo) GetAllAccounts(ctx context.Context, limit, offset int) ([]model.Account, error) {
	return k.datasource.GetAllAccounts(ctx, limit, offset)
}
