package model

import (
	"github.com/kolofinance/kolo/model"
)

type CreateAccount struct {
	Name      string                 `json:"name"`
	Number    string                 `json:"number"`
	Kind      string                 `json:"kind"`
	ProductID string                 `json:"product_id"`
	EventCode string                 `json:"event_code"`
	BranchID  string                 `json:"branch_id"`
	Currency  string                 `json:"currency"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

func (a *CreateAccount) ToAccount() model.Account {
	return model.Account{
		Name:      a.Name,
		Number:    a.Number,
		Kind:      model.AccountKind(a.Kind),
		ProductID: a.ProductID,
		EventCode: a.EventCode,
		BranchID:  a.BranchID,
		Currency:  a.Currency,
		MetaData:  a.MetaData,
	}
}
