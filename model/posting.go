package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product types that route a posting command through the loan-refund
// sub-pipeline instead of the plain account-to-account path.
const (
	ProductTypeNewLoan = "newloan"
	ProductTypeOldLoan = "oldloan"
)

// AmountEvent is one named amount inside a posting command: principal,
// commission, or a fee, identified by its event code.
type AmountEvent struct {
	EventCode string          `json:"event_code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// PostingCommand is one member's transfer or loan-refund instruction inside a
// bulk batch. The first event in AmountEvents is the principal; the rest are
// commissions. SpecialFeeEvents are posted separately against fee accounts.
type PostingCommand struct {
	CommandID        string        `json:"command_id"`
	FromProductID    string        `json:"from_product_id"`
	ToProductID      string        `json:"to_product_id"`
	ProductType      string        `json:"product_type"`
	MemberReference  string        `json:"member_reference"`
	LoanID           string        `json:"loan_id,omitempty"`
	Narration        string        `json:"narration"`
	BranchID         string        `json:"branch_id"`
	ExternalBranchID string        `json:"external_branch_id,omitempty"`
	IsInterBranch    bool          `json:"is_inter_branch"`
	AmountEvents     []AmountEvent `json:"amount_events"`
	SpecialFeeEvents []AmountEvent `json:"special_fee_events,omitempty"`
	TransactionDate  time.Time     `json:"transaction_date"`
}

// Principal returns the primary amount event of the command. ok is false when
// the command carries no amounts at all.
func (c *PostingCommand) Principal() (AmountEvent, bool) {
	if len(c.AmountEvents) == 0 {
		return AmountEvent{}, false
	}
	return c.AmountEvents[0], true
}

// Commissions returns every positive-amount event after the principal.
func (c *PostingCommand) Commissions() []AmountEvent {
	if len(c.AmountEvents) < 2 {
		return nil
	}
	var out []AmountEvent
	for _, ev := range c.AmountEvents[1:] {
		if ev.Amount.IsPositive() {
			out = append(out, ev)
		}
	}
	return out
}

// IsLoanRefund reports whether the command must be dispatched to the
// loan-refund sub-pipeline.
func (c *PostingCommand) IsLoanRefund() bool {
	return c.ProductType == ProductTypeNewLoan || c.ProductType == ProductTypeOldLoan
}

func (c *PostingCommand) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// BulkResult carries everything a bulk-transfer caller needs to decide on
// follow-up: the entries generated for the commands that succeeded and the
// residual commands that failed. A batch with failures is still a success
// response; the caller retries the residue.
type BulkResult struct {
	Entries []*AccountingEntry `json:"entries"`
	Failed  []*PostingCommand  `json:"failed"`
	Message string             `json:"message,omitempty"`
}

type PostingStatus string

const (
	PostingStatusPending   PostingStatus = "PENDING"
	PostingStatusCompleted PostingStatus = "COMPLETED"
	PostingStatusError     PostingStatus = "ERROR"
)

// PostingRecord is the persisted status of one command from a bulk batch,
// used by the retry orchestrator to re-submit residual failures.
type PostingRecord struct {
	ID        int64           `json:"-"`
	RecordID  string          `json:"record_id"`
	BatchID   string          `json:"batch_id"`
	Command   *PostingCommand `json:"command"`
	Status    PostingStatus   `json:"status"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
