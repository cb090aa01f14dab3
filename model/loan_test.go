package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func getLoanMock(amount float64, rate float64, months int, loanDate time.Time) *Loan {
	return &Loan{
		LoanID:         GenerateUUIDWithSuffix("lon"),
		LoanAmount:     decimal.NewFromFloat(amount),
		Balance:        decimal.NewFromFloat(amount),
		Principal:      decimal.NewFromFloat(amount),
		InterestRate:   decimal.NewFromFloat(rate),
		DurationMonths: months,
		LoanDate:       loanDate,
		Status:         LoanStatusOpen,
		State:          StateActive,
	}
}

func TestAssessDelinquencyWithinGrace(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := getLoanMock(120000, 2, 12, loanDate)

	// Grace runs until 2024-02-01; the loan is current on that day.
	a := loan.AssessDelinquency(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1)
	assert.False(t, a.Delinquent)
	assert.Equal(t, 0, a.Days)
	assert.True(t, a.Amount.IsZero())
	assert.True(t, a.Interest.IsZero())
}

func TestAssessDelinquencyAfterGrace(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := getLoanMock(120000, 2, 12, loanDate)

	// 30 days past the 2024-02-01 grace end.
	today := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	a := loan.AssessDelinquency(today, 1)

	assert.True(t, a.Delinquent)
	assert.Equal(t, 30, a.Days)

	// The per-day amount is the balance spread over the real calendar term.
	termDays := DaysBetween(loanDate, loanDate.AddDate(0, 12, 0))
	dailyAmount := RoundMoney(loan.Balance.DivRound(decimal.NewFromInt(int64(termDays)), 8))
	assert.Equal(t, RoundMoney(dailyAmount.Mul(decimal.NewFromInt(30))).String(), a.Amount.String())

	// 2% monthly on a 30-day month over 30 days is one full month of interest.
	assert.Equal(t, "2400", a.Interest.String())
}

func TestAssessDelinquencyExactFigures(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := getLoanMock(120000, 2, 12, loanDate)

	// Pin one assessment end to end: grace runs to 2024-02-01, so by
	// 2024-03-20 the loan is 48 days overdue. The 12-month term spans the
	// 2024 leap year, 366 calendar days, giving a rounded 328 per day.
	today := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	a := loan.AssessDelinquency(today, 1)

	assert.True(t, a.Delinquent)
	assert.Equal(t, 48, a.Days)
	assert.Equal(t, "15744", a.Amount.String())

	// Interest is 2% per 30-day month on the balance: 80 a day, 48 days.
	assert.Equal(t, "3840", a.Interest.String())
}

func TestAssessDelinquencyFromLastRefund(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := getLoanMock(60000, 1.5, 6, loanDate)
	loan.LastRefundDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// Grace counts from the refund, not the loan date.
	a := loan.AssessDelinquency(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), 1)
	assert.True(t, a.Delinquent)
	assert.Equal(t, 15, a.Days)
}

func TestAssessDelinquencyRecomputesFromScratch(t *testing.T) {
	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loan := getLoanMock(120000, 2, 12, loanDate)

	// A run after skipped days lands on the same numbers as daily runs.
	first := loan.AssessDelinquency(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 1)
	loan.ApplyAssessment(first, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	later := loan.AssessDelinquency(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, 40, later.Days)

	fresh := getLoanMock(120000, 2, 12, loanDate)
	direct := fresh.AssessDelinquency(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, direct.Days, later.Days)
	assert.Equal(t, direct.Amount.String(), later.Amount.String())
	assert.Equal(t, direct.Interest.String(), later.Interest.String())
}

func TestApplyAssessmentResetsOnCure(t *testing.T) {
	loan := getLoanMock(50000, 2, 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	loan.DelinquentDays = 12
	loan.DelinquentAmount = decimal.NewFromInt(600)
	loan.DelinquentInterest = decimal.NewFromInt(40)
	loan.IsDelinquent = true
	loan.DelinquencyStatus = DelinquencyDelinquent

	today := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	loan.ApplyAssessment(DelinquencyAssessment{Delinquent: false}, today)

	assert.False(t, loan.IsDelinquent)
	assert.Equal(t, DelinquencyCurrent, loan.DelinquencyStatus)
	assert.Equal(t, 0, loan.DelinquentDays)
	assert.True(t, loan.DelinquentAmount.IsZero())
	assert.True(t, loan.DelinquentInterest.IsZero())
	assert.Equal(t, DateOnly(today), loan.LastProcessedDate)
}

func TestApplyAssessmentResetsAdvancedPayment(t *testing.T) {
	loan := getLoanMock(50000, 2, 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	loan.AdvancedPayment = decimal.NewFromInt(1500)

	today := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	loan.ApplyAssessment(DelinquencyAssessment{Delinquent: true, Days: 5, Amount: decimal.NewFromInt(250)}, today)

	assert.True(t, loan.IsDelinquent)
	assert.True(t, loan.AdvancedPayment.IsZero())
}

func TestProcessedOn(t *testing.T) {
	loan := getLoanMock(1000, 1, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, loan.ProcessedOn(today))

	loan.LastProcessedDate = time.Date(2024, 6, 10, 14, 30, 0, 0, time.UTC)
	assert.True(t, loan.ProcessedOn(today))

	loan.LastProcessedDate = time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC)
	assert.False(t, loan.ProcessedOn(today))
}

func TestMatchBracket(t *testing.T) {
	brackets := []DelinquencyBracket{
		{ConfigID: "cfg_30", MinDays: 1, MaxDays: 30},
		{ConfigID: "cfg_90", MinDays: 31, MaxDays: 90},
		{ConfigID: "cfg_max", MinDays: 91, MaxDays: 100000},
	}

	assert.Equal(t, "", MatchBracket(brackets, 0))
	assert.Equal(t, "cfg_30", MatchBracket(brackets, 1))
	assert.Equal(t, "cfg_30", MatchBracket(brackets, 30))
	assert.Equal(t, "cfg_90", MatchBracket(brackets, 31))
	assert.Equal(t, "cfg_max", MatchBracket(brackets, 400))
}

func TestOutstanding(t *testing.T) {
	loan := getLoanMock(1000, 1, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, loan.Outstanding())

	loan.Paid = decimal.NewFromInt(1000)
	assert.False(t, loan.Outstanding())
}
