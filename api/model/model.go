/*
Copyright 2024 Kolo Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func validateDateFormat(value string) error {
	if value == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", value)
	if err != nil {
		return errors.New("please format the date as 'YYYY-MM-DD' (e.g., 2026-08-30)")
	}
	return nil
}

func externalBranchValidation(c *PostingCommandRequest) validation.RuleFunc {
	return func(value interface{}) error {
		if c.IsInterBranch && c.ExternalBranchID == "" {
			return errors.New("external_branch_id is required for inter-branch transfers")
		}
		if c.IsInterBranch && c.ExternalBranchID == c.BranchID {
			return errors.New("external_branch_id must differ from branch_id")
		}
		return nil
	}
}

func loanOrProductValidation(c *PostingCommandRequest) validation.RuleFunc {
	return func(value interface{}) error {
		if c.isLoanRefund() {
			if c.LoanID == "" {
				return errors.New("loan_id is required for loan refunds")
			}
			return nil
		}
		if c.FromProductID == "" {
			return errors.New("from_product_id is required for transfers")
		}
		return nil
	}
}

func (c *PostingCommandRequest) ValidatePostingCommand() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MemberReference, validation.Required),
		validation.Field(&c.BranchID, validation.Required),
		validation.Field(&c.ToProductID, validation.Required),
		validation.Field(&c.AmountEvents, validation.Required, validation.Length(1, 0)),
		validation.Field(&c.TransactionDate, validation.Required, validation.By(func(value interface{}) error {
			return validateDateFormat(c.TransactionDate)
		})),
		validation.Field(&c.ExternalBranchID, validation.By(externalBranchValidation(c))),
		validation.Field(&c.LoanID, validation.By(loanOrProductValidation(c))),
	)
}

func (b *BulkTransferRequest) ValidateBulkTransfer() error {
	if len(b.Commands) == 0 {
		return errors.New("a bulk transfer requires at least one command")
	}
	for i := range b.Commands {
		if err := b.Commands[i].ValidatePostingCommand(); err != nil {
			return err
		}
	}
	return nil
}

func (l *CreateLoan) ValidateCreateLoan() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.MemberReference, validation.Required),
		validation.Field(&l.BranchID, validation.Required),
		validation.Field(&l.LoanAmount, validation.Required, validation.Min(0.01)),
		validation.Field(&l.InterestRate, validation.Required, validation.Min(0.0)),
		validation.Field(&l.DurationMonths, validation.Required, validation.Min(1)),
		validation.Field(&l.LoanDate, validation.Required, validation.By(func(value interface{}) error {
			return validateDateFormat(l.LoanDate)
		})),
	)
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Number, validation.Required),
		validation.Field(&a.Kind, validation.Required,
			validation.In("TELLER", "PRODUCT", "LIAISON", "COMMISSION", "FEE")),
		validation.Field(&a.BranchID, validation.Required),
		validation.Field(&a.Currency, validation.Required),
		validation.Field(&a.ProductID, validation.By(func(value interface{}) error {
			if a.Kind == "PRODUCT" && a.ProductID == "" {
				return errors.New("product_id is required for product accounts")
			}
			return nil
		})),
		validation.Field(&a.EventCode, validation.By(func(value interface{}) error {
			if (a.Kind == "COMMISSION" || a.Kind == "FEE") && a.EventCode == "" {
				return errors.New("event_code is required for commission and fee accounts")
			}
			return nil
		})),
	)
}
