package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountingEntry is one balanced ledger movement: a debit against the source
// account matched by a credit to the destination account for the same amount.
// Entries are immutable once persisted.
type AccountingEntry struct {
	ID                   int64           `json:"-"`
	EntryID              string          `json:"entry_id"`
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	TransactionReference string          `json:"transaction_reference"`
	BranchID             string          `json:"branch_id"`
	Narration            string          `json:"narration"`
	TransactionDate      time.Time       `json:"transaction_date"`
	CreatedAt            time.Time       `json:"created_at"`
}

// CashMovement builds the balanced entry for a single cash movement between
// two resolved accounts. Every posting in the system funnels through here.
func CashMovement(narration, memberReference string, date time.Time, from, to *Account, amount decimal.Decimal, reference, branchID string) (*AccountingEntry, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("cash movement requires both a source and a destination account")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("cash movement amount must be positive, got %s", amount)
	}
	if from.AccountID == to.AccountID {
		return nil, fmt.Errorf("cash movement cannot debit and credit the same account %s", from.AccountID)
	}
	if narration == "" {
		narration = fmt.Sprintf("transfer for %s", memberReference)
	}
	return &AccountingEntry{
		EntryID:              GenerateUUIDWithSuffix("ent"),
		SourceAccountID:      from.AccountID,
		DestinationAccountID: to.AccountID,
		Amount:               amount,
		TransactionReference: reference,
		BranchID:             branchID,
		Narration:            narration,
		TransactionDate:      DateOnly(date),
		CreatedAt:            time.Now(),
	}, nil
}

// EvaluateDoubleEntryRule validates a batch of entries before persistence.
// An entry carries a single amount moved between a source and a destination,
// so each one is a self-balancing debit/credit pair; batch balance reduces to
// every entry being well formed. Each must carry a positive amount, a
// transaction reference, and two distinct accounts. Callers persist the batch
// only when this returns true.
func EvaluateDoubleEntryRule(entries []*AccountingEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if e == nil {
			return false
		}
		if e.SourceAccountID == "" || e.DestinationAccountID == "" {
			return false
		}
		if e.SourceAccountID == e.DestinationAccountID {
			return false
		}
		if e.TransactionReference == "" {
			return false
		}
		if !e.Amount.IsPositive() {
			return false
		}
	}
	return true
}
