package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "OPEN"
	LoanStatusClosed LoanStatus = "CLOSED"
)

type DelinquencyStatus string

const (
	DelinquencyCurrent    DelinquencyStatus = "CURRENT"
	DelinquencyDelinquent DelinquencyStatus = "DELINQUENT"
)

// LifecycleState models soft deletion as an explicit state instead of a
// scattered boolean flag. Records are never physically removed.
type LifecycleState string

const (
	StateActive  LifecycleState = "ACTIVE"
	StateDeleted LifecycleState = "DELETED"
)

type Loan struct {
	ID                 int64                  `json:"-"`
	LoanID             string                 `json:"loan_id"`
	ApplicationID      string                 `json:"application_id"`
	MemberReference    string                 `json:"member_reference"`
	BranchID           string                 `json:"branch_id"`
	LoanAmount         decimal.Decimal        `json:"loan_amount"`
	Paid               decimal.Decimal        `json:"paid"`
	Balance            decimal.Decimal        `json:"balance"`
	Principal          decimal.Decimal        `json:"principal"`
	InterestRate       decimal.Decimal        `json:"interest_rate"`
	DurationMonths     int                    `json:"duration_months"`
	LoanDate           time.Time              `json:"loan_date"`
	LastRefundDate     time.Time              `json:"last_refund_date,omitempty"`
	DelinquentDays     int                    `json:"delinquent_days"`
	DelinquentAmount   decimal.Decimal        `json:"delinquent_amount"`
	DelinquentInterest decimal.Decimal        `json:"delinquent_interest"`
	IsDelinquent       bool                   `json:"is_delinquent"`
	DelinquencyStatus  DelinquencyStatus      `json:"delinquency_status"`
	DelinquencyConfig  string                 `json:"delinquency_config_id"`
	AdvancedPayment    decimal.Decimal        `json:"advanced_payment"`
	LastProcessedDate  time.Time              `json:"last_delinquency_processed_date,omitempty"`
	Status             LoanStatus             `json:"status"`
	State              LifecycleState         `json:"state"`
	CreatedAt          time.Time              `json:"created_at"`
	MetaData           map[string]interface{} `json:"meta_data,omitempty"`
}

// Outstanding reports whether the loan still carries an unpaid balance.
func (l *Loan) Outstanding() bool {
	return l.LoanAmount.Sub(l.Paid).IsPositive()
}

// ProcessedOn reports whether the loan's delinquency state was already
// computed on the given calendar date. This is what makes the daily batch
// idempotent within a day.
func (l *Loan) ProcessedOn(day time.Time) bool {
	if l.LastProcessedDate.IsZero() {
		return false
	}
	return DateOnly(l.LastProcessedDate).Equal(DateOnly(day))
}

// DelinquencyBracket is read-only reference data mapping a day-count range to
// a penalty configuration id.
type DelinquencyBracket struct {
	ConfigID string `json:"config_id"`
	MinDays  int    `json:"min_days"`
	MaxDays  int    `json:"max_days"`
}

// MatchBracket returns the config id of the bracket containing days, or an
// empty string when no bracket matches.
func MatchBracket(brackets []DelinquencyBracket, days int) string {
	for _, b := range brackets {
		if days >= b.MinDays && days <= b.MaxDays {
			return b.ConfigID
		}
	}
	return ""
}

// DelinquencyAssessment is the outcome of evaluating a single loan against
// the current processing date.
type DelinquencyAssessment struct {
	Delinquent bool
	Days       int
	Amount     decimal.Decimal
	Interest   decimal.Decimal
}

// AssessDelinquency recomputes the loan's delinquency classification from
// scratch for the given processing date. The classification is derived from
// LastRefundDate (or LoanDate when the loan has never been refunded) plus a
// grace period of graceMonths, never from the previously stored state, so
// skipped runs catch up naturally.
func (l *Loan) AssessDelinquency(today time.Time, graceMonths int) DelinquencyAssessment {
	today = DateOnly(today)

	// Nominal per-day principal amortization over the loan term. A fixed
	// 30-day month is assumed for the interest rate only; the term itself
	// uses real calendar months.
	termDays := DaysBetween(l.LoanDate, l.LoanDate.AddDate(0, l.DurationMonths, 0))
	dailyAmount := decimal.Zero
	if termDays > 0 {
		dailyAmount = RoundMoney(l.Balance.DivRound(decimal.NewFromInt(int64(termDays)), 8))
	}
	dailyInterestRate := l.InterestRate.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(30))

	graceEnd := l.LoanDate.AddDate(0, graceMonths, 0)
	if !l.LastRefundDate.IsZero() {
		graceEnd = l.LastRefundDate.AddDate(0, graceMonths, 0)
	}

	days := DaysBetween(graceEnd, today)
	if days <= 0 {
		return DelinquencyAssessment{
			Delinquent: false,
			Amount:     decimal.Zero,
			Interest:   decimal.Zero,
		}
	}

	daysDec := decimal.NewFromInt(int64(days))
	return DelinquencyAssessment{
		Delinquent: true,
		Days:       days,
		Amount:     RoundMoney(dailyAmount.Mul(daysDec)),
		Interest:   RoundMoney(l.Balance.Mul(dailyInterestRate).Mul(daysDec)),
	}
}

// ApplyAssessment writes an assessment back onto the loan and stamps the
// processing date. Advanced-payment tracking is reset when the loan turns
// delinquent.
func (l *Loan) ApplyAssessment(a DelinquencyAssessment, today time.Time) {
	if a.Delinquent {
		l.DelinquentDays = a.Days
		l.DelinquentAmount = a.Amount
		l.DelinquentInterest = a.Interest
		l.IsDelinquent = true
		l.DelinquencyStatus = DelinquencyDelinquent
		l.AdvancedPayment = decimal.Zero
	} else {
		l.DelinquentDays = 0
		l.DelinquentAmount = decimal.Zero
		l.DelinquentInterest = decimal.Zero
		l.IsDelinquent = false
		l.DelinquencyStatus = DelinquencyCurrent
	}
	l.LastProcessedDate = DateOnly(today)
}
