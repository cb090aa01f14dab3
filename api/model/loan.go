package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/model"
)

type CreateLoan struct {
	ApplicationID   string                 `json:"application_id"`
	MemberReference string                 `json:"member_reference"`
	BranchID        string                 `json:"branch_id"`
	LoanAmount      float64                `json:"loan_amount"`
	Paid            float64                `json:"paid"`
	Principal       float64                `json:"principal"`
	InterestRate    float64                `json:"interest_rate"`
	DurationMonths  int                    `json:"duration_months"`
	LoanDate        string                 `json:"loan_date"`
	MetaData        map[string]interface{} `json:"meta_data"`
}

func (l *CreateLoan) ToLoan() model.Loan {
	var loanDate time.Time
	if l.LoanDate != "" {
		parsed, err := time.Parse("2006-01-02", l.LoanDate)
		if err != nil {
			logrus.Error(err)
		}
		loanDate = parsed
	}

	principal := decimal.NewFromFloat(l.Principal)
	if principal.IsZero() {
		principal = decimal.NewFromFloat(l.LoanAmount)
	}

	return model.Loan{
		ApplicationID:   l.ApplicationID,
		MemberReference: l.MemberReference,
		BranchID:        l.BranchID,
		LoanAmount:      decimal.NewFromFloat(l.LoanAmount),
		Paid:            decimal.NewFromFloat(l.Paid),
		Principal:       principal,
		InterestRate:    decimal.NewFromFloat(l.InterestRate),
		DurationMonths:  l.DurationMonths,
		LoanDate:        loanDate,
		MetaData:        l.MetaData,
	}
}
