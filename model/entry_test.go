package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func getAccountMock(id string, kind AccountKind) *Account {
	return &Account{AccountID: id, Kind: kind, BranchID: "br_001", Currency: "XOF", State: StateActive}
}

func TestCashMovement(t *testing.T) {
	from := getAccountMock("acc_src", AccountKindProduct)
	to := getAccountMock("acc_dst", AccountKindProduct)
	date := time.Date(2024, 6, 1, 13, 45, 0, 0, time.UTC)

	entry, err := CashMovement("monthly savings", "MBR-001", date, from, to, decimal.NewFromInt(5000), "ref_1", "br_001")
	assert.NoError(t, err)
	assert.Equal(t, "acc_src", entry.SourceAccountID)
	assert.Equal(t, "acc_dst", entry.DestinationAccountID)
	assert.Equal(t, "5000", entry.Amount.String())
	assert.Equal(t, "ref_1", entry.TransactionReference)
	assert.Equal(t, DateOnly(date), entry.TransactionDate)
}

func TestCashMovementDefaultNarration(t *testing.T) {
	from := getAccountMock("acc_src", AccountKindProduct)
	to := getAccountMock("acc_dst", AccountKindProduct)

	entry, err := CashMovement("", "MBR-001", time.Now(), from, to, decimal.NewFromInt(100), "ref_1", "br_001")
	assert.NoError(t, err)
	assert.Contains(t, entry.Narration, "MBR-001")
}

func TestCashMovementRejectsBadInput(t *testing.T) {
	from := getAccountMock("acc_src", AccountKindProduct)
	to := getAccountMock("acc_dst", AccountKindProduct)

	_, err := CashMovement("x", "MBR-001", time.Now(), nil, to, decimal.NewFromInt(100), "ref_1", "br_001")
	assert.Error(t, err)

	_, err = CashMovement("x", "MBR-001", time.Now(), from, to, decimal.NewFromInt(-100), "ref_1", "br_001")
	assert.Error(t, err)

	_, err = CashMovement("x", "MBR-001", time.Now(), from, to, decimal.Zero, "ref_1", "br_001")
	assert.Error(t, err)

	_, err = CashMovement("x", "MBR-001", time.Now(), from, from, decimal.NewFromInt(100), "ref_1", "br_001")
	assert.Error(t, err)
}

func TestEvaluateDoubleEntryRule(t *testing.T) {
	from := getAccountMock("acc_src", AccountKindProduct)
	to := getAccountMock("acc_dst", AccountKindProduct)
	fee := getAccountMock("acc_fee", AccountKindFee)
	date := time.Now()

	main, err := CashMovement("transfer", "MBR-001", date, from, to, decimal.NewFromInt(5000), "ref_1", "br_001")
	assert.NoError(t, err)
	feeLeg, err := CashMovement("stamp fee", "MBR-001", date, from, fee, decimal.NewFromInt(150), "ref_1", "br_001")
	assert.NoError(t, err)

	assert.True(t, EvaluateDoubleEntryRule([]*AccountingEntry{main, feeLeg}))
}

func TestEvaluateDoubleEntryRuleRejects(t *testing.T) {
	valid := &AccountingEntry{
		SourceAccountID:      "acc_src",
		DestinationAccountID: "acc_dst",
		Amount:               decimal.NewFromInt(100),
		TransactionReference: "ref_1",
	}

	assert.False(t, EvaluateDoubleEntryRule(nil))
	assert.False(t, EvaluateDoubleEntryRule([]*AccountingEntry{nil}))

	missingSource := *valid
	missingSource.SourceAccountID = ""
	assert.False(t, EvaluateDoubleEntryRule([]*AccountingEntry{&missingSource}))

	sameAccount := *valid
	sameAccount.DestinationAccountID = sameAccount.SourceAccountID
	assert.False(t, EvaluateDoubleEntryRule([]*AccountingEntry{&sameAccount}))

	missingReference := *valid
	missingReference.TransactionReference = ""
	assert.False(t, EvaluateDoubleEntryRule([]*AccountingEntry{&missingReference}))

	negativeAmount := *valid
	negativeAmount.Amount = decimal.NewFromInt(-100)
	assert.False(t, EvaluateDoubleEntryRule([]*AccountingEntry{&negativeAmount}))

	assert.True(t, EvaluateDoubleEntryRule([]*AccountingEntry{valid}))
}
