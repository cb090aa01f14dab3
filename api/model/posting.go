package model

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/model"
)

type AmountEventRequest struct {
	EventCode string  `json:"event_code"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
}

type PostingCommandRequest struct {
	CommandID        string               `json:"command_id"`
	FromProductID    string               `json:"from_product_id"`
	ToProductID      string               `json:"to_product_id"`
	ProductType      string               `json:"product_type"`
	MemberReference  string               `json:"member_reference"`
	LoanID           string               `json:"loan_id"`
	Narration        string               `json:"narration"`
	BranchID         string               `json:"branch_id"`
	ExternalBranchID string               `json:"external_branch_id"`
	IsInterBranch    bool                 `json:"is_inter_branch"`
	AmountEvents     []AmountEventRequest `json:"amount_events"`
	SpecialFeeEvents []AmountEventRequest `json:"special_fee_events"`
	TransactionDate  string               `json:"transaction_date"`
}

type BulkTransferRequest struct {
	Commands []PostingCommandRequest `json:"commands"`
}

func (c *PostingCommandRequest) isLoanRefund() bool {
	return c.ProductType == model.ProductTypeNewLoan || c.ProductType == model.ProductTypeOldLoan
}

func toAmountEvents(events []AmountEventRequest) []model.AmountEvent {
	out := make([]model.AmountEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, model.AmountEvent{
			EventCode: ev.EventCode,
			Name:      ev.Name,
			Amount:    decimal.NewFromFloat(ev.Amount),
		})
	}
	return out
}

func (c *PostingCommandRequest) ToCommand() *model.PostingCommand {
	var transactionDate time.Time
	if c.TransactionDate != "" {
		parsed, err := time.Parse("2006-01-02", c.TransactionDate)
		if err != nil {
			logrus.Error(err)
		}
		transactionDate = parsed
	}

	commandID := c.CommandID
	if commandID == "" {
		commandID = model.GenerateUUIDWithSuffix("cmd")
	}

	return &model.PostingCommand{
		CommandID:        commandID,
		FromProductID:    c.FromProductID,
		ToProductID:      c.ToProductID,
		ProductType:      c.ProductType,
		MemberReference:  c.MemberReference,
		LoanID:           c.LoanID,
		Narration:        c.Narration,
		BranchID:         c.BranchID,
		ExternalBranchID: c.ExternalBranchID,
		IsInterBranch:    c.IsInterBranch,
		AmountEvents:     toAmountEvents(c.AmountEvents),
		SpecialFeeEvents: toAmountEvents(c.SpecialFeeEvents),
		TransactionDate:  transactionDate,
	}
}

func (b *BulkTransferRequest) ToCommands() []*model.PostingCommand {
	commands := make([]*model.PostingCommand, 0, len(b.Commands))
	for i := range b.Commands {
		commands = append(commands, b.Commands[i].ToCommand())
	}
	return commands
}
