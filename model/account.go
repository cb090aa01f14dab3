package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies ledger accounts by the role they play in posting
// resolution.
type AccountKind string

const (
	AccountKindTeller     AccountKind = "TELLER"
	AccountKindProduct    AccountKind = "PRODUCT"
	AccountKindLiaison    AccountKind = "LIAISON"
	AccountKindCommission AccountKind = "COMMISSION"
	AccountKindFee        AccountKind = "FEE"
)

type Account struct {
	ID        int64                  `json:"-"`
	AccountID string                 `json:"account_id"`
	Name      string                 `json:"name"`
	Number    string                 `json:"number"`
	Kind      AccountKind            `json:"kind"`
	ProductID string                 `json:"product_id,omitempty"`
	EventCode string                 `json:"event_code,omitempty"`
	BranchID  string                 `json:"branch_id"`
	Currency  string                 `json:"currency"`
	Balance   decimal.Decimal        `json:"balance"`
	State     LifecycleState         `json:"state"`
	CreatedAt time.Time              `json:"created_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}
