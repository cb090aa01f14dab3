package kolo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kolofinance/kolo/internal/apierror"
	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/model"
)

var transferTracer = otel.Tracer("kolo.transfer")

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return err
}

// ProcessTransactions runs every command of a bulk batch through the posting
// pipeline. Commands are independent: a failure on one is collected into the
// result and processing continues with the next. Nothing is persisted here,
// not even loan repayment state; PostBulkTransfer validates, records the
// entries, and only then applies the loan updates.
func (k *Kolo) ProcessTransactions(ctx context.Context, commands []*model.PostingCommand, user *model.UserInfo) *model.BulkResult {
	result, _, _ := k.runTransferPipeline(ctx, commands, user)
	return result
}

// runTransferPipeline is the shared core of the batch and retry paths. It
// returns the bulk result, per-command error messages keyed by command id for
// the posting-record store, and the loan repayment updates computed by refund
// commands. The updates are not persisted here: a refund written before the
// batch entries would be applied a second time when an infrastructure failure
// forces a batch retry.
func (k *Kolo) runTransferPipeline(ctx context.Context, commands []*model.PostingCommand, user *model.UserInfo) (*model.BulkResult, map[string]string, []*model.Loan) {
	ctx, span := transferTracer.Start(ctx, "Processing bulk transfer commands")
	defer span.End()

	result := &model.BulkResult{}
	failures := make(map[string]string)
	var loanUpdates []*model.Loan

	for _, command := range commands {
		entries, loan, err := k.processSingleTransaction(ctx, command, user)
		if err != nil {
			logrus.Errorf("posting command %s for member %s failed: %v", command.CommandID, command.MemberReference, err)
			k.audit.LogAndAudit(ctx, userToken(user), "ProcessPostingCommand", userName(user), command,
				fmt.Sprintf("command %s failed: %v", command.CommandID, err),
				audit.LevelError, apierror.MapErrorToHTTPStatus(err))
			result.Failed = append(result.Failed, command)
			failures[command.CommandID] = err.Error()
			continue
		}
		result.Entries = append(result.Entries, entries...)
		if loan != nil {
			loanUpdates = append(loanUpdates, loan)
		}
	}

	if len(result.Failed) > 0 {
		result.Message = fmt.Sprintf("%d of %d commands failed and were set aside for retry", len(result.Failed), len(commands))
	}
	return result, failures, loanUpdates
}

// processSingleTransaction turns one posting command into its balanced ledger
// entries. Loan refunds take the repayment sub-pipeline and additionally
// return the pending loan update; everything else is a plain
// product-to-product movement plus commission and fee legs.
func (k *Kolo) processSingleTransaction(ctx context.Context, command *model.PostingCommand, user *model.UserInfo) ([]*model.AccountingEntry, *model.Loan, error) {
	if command.IsLoanRefund() {
		return k.processLoanRefund(ctx, command, user)
	}

	principal, ok := command.Principal()
	if !ok {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			"posting command carries no amount events",
			fmt.Sprintf("command %s has nothing to post", command.CommandID))
	}

	destinationBranch := command.BranchID
	if command.IsInterBranch {
		destinationBranch = command.ExternalBranchID
	}

	fromProduct, err := k.datasource.GetProductAccount(ctx, command.FromProductID, command.BranchID)
	if err != nil {
		return nil, nil, err
	}
	toProduct, err := k.datasource.GetProductAccount(ctx, command.ToProductID, destinationBranch)
	if err != nil {
		return nil, nil, err
	}

	reference := model.GenerateUUIDWithSuffix("ref")
	var entries []*model.AccountingEntry

	mainEntries, err := k.processMainTransaction(ctx, command, fromProduct, toProduct, principal.Amount, reference)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, mainEntries...)

	commissionEntries, err := k.processCommissions(ctx, command, toProduct, destinationBranch, reference)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, commissionEntries...)

	feeEntries, err := k.processSpecialFees(ctx, command, fromProduct, reference)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, feeEntries...)

	return entries, nil, nil
}

// processMainTransaction posts the principal movement. A local transfer is a
// single entry. An inter-branch transfer bridges the two branch ledgers
// through their liaison accounts: the source branch settles into the away
// branch's liaison, and the home liaison funds the destination product, both
// legs under the same reference and amount.
func (k *Kolo) processMainTransaction(ctx context.Context, command *model.PostingCommand, fromProduct, toProduct *model.Account, amount decimal.Decimal, reference string) ([]*model.AccountingEntry, error) {
	if !command.IsInterBranch {
		entry, err := model.CashMovement(command.Narration, command.MemberReference, command.TransactionDate,
			fromProduct, toProduct, amount, reference, command.BranchID)
		if err != nil {
			return nil, err
		}
		return []*model.AccountingEntry{entry}, nil
	}

	awayLiaison, err := k.datasource.GetLiaisonAccount(ctx, command.ExternalBranchID)
	if err != nil {
		return nil, err
	}
	homeLiaison, err := k.datasource.GetLiaisonAccount(ctx, command.BranchID)
	if err != nil {
		return nil, err
	}

	outbound, err := model.CashMovement(command.Narration, command.MemberReference, command.TransactionDate,
		fromProduct, awayLiaison, amount, reference, command.ExternalBranchID)
	if err != nil {
		return nil, err
	}
	inbound, err := model.CashMovement(command.Narration, command.MemberReference, command.TransactionDate,
		homeLiaison, toProduct, amount, reference, command.BranchID)
	if err != nil {
		return nil, err
	}
	return []*model.AccountingEntry{outbound, inbound}, nil
}

// processCommissions sweeps every commission event out of the credited product
// account into the branch's commission income account for that event code.
func (k *Kolo) processCommissions(ctx context.Context, command *model.PostingCommand, toProduct *model.Account, branchID, reference string) ([]*model.AccountingEntry, error) {
	var entries []*model.AccountingEntry
	for _, event := range command.Commissions() {
		commissionAccount, err := k.datasource.GetCommissionAccount(ctx, event.EventCode, branchID)
		if err != nil {
			return nil, err
		}
		entry, err := model.CashMovement(event.Name, command.MemberReference, command.TransactionDate,
			toProduct, commissionAccount, event.Amount, reference, branchID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// processSpecialFees debits the member's product account for each special fee
// in favor of the fee account matching the event code. Non-positive fee
// amounts are skipped rather than rejected; upstream systems send zero lines
// for waived fees.
func (k *Kolo) processSpecialFees(ctx context.Context, command *model.PostingCommand, fromProduct *model.Account, reference string) ([]*model.AccountingEntry, error) {
	var entries []*model.AccountingEntry
	for _, event := range command.SpecialFeeEvents {
		if !event.Amount.IsPositive() {
			continue
		}
		feeAccount, err := k.datasource.GetFeeAccount(ctx, event.EventCode, command.BranchID)
		if err != nil {
			return nil, err
		}
		entry, err := model.CashMovement(event.Name, command.MemberReference, command.TransactionDate,
			fromProduct, feeAccount, event.Amount, reference, command.BranchID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// processLoanRefund posts a member's loan repayment: principal from the teller
// into the loan product account, interest into commission income, fees into
// their fee accounts. The loan closes when the repayment clears the balance;
// any overpayment is kept as an advanced payment rather than a negative
// balance. The recomputed loan is returned, not persisted: the repayment must
// not reach storage until the batch entries have, or a batch retry after an
// infrastructure failure applies it twice.
func (k *Kolo) processLoanRefund(ctx context.Context, command *model.PostingCommand, user *model.UserInfo) ([]*model.AccountingEntry, *model.Loan, error) {
	principal, ok := command.Principal()
	if !ok {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidInput,
			"loan refund carries no amount events",
			fmt.Sprintf("command %s has nothing to post", command.CommandID))
	}

	loan, err := k.datasource.GetLoanByID(ctx, command.LoanID)
	if err != nil {
		return nil, nil, err
	}
	if loan.Status == model.LoanStatusClosed {
		return nil, nil, apierror.NewAPIError(apierror.ErrConflict,
			"loan is already closed",
			fmt.Sprintf("loan %s is closed, refund %s rejected", loan.LoanID, command.CommandID))
	}

	teller, err := k.datasource.GetTellerAccount(ctx, command.BranchID)
	if err != nil {
		return nil, nil, err
	}
	loanProduct, err := k.datasource.GetProductAccount(ctx, command.ToProductID, command.BranchID)
	if err != nil {
		return nil, nil, err
	}

	reference := model.GenerateUUIDWithSuffix("ref")
	var entries []*model.AccountingEntry

	principalEntry, err := model.CashMovement(command.Narration, command.MemberReference, command.TransactionDate,
		teller, loanProduct, principal.Amount, reference, command.BranchID)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, principalEntry)

	for _, event := range command.Commissions() {
		commissionAccount, err := k.datasource.GetCommissionAccount(ctx, event.EventCode, command.BranchID)
		if err != nil {
			return nil, nil, err
		}
		entry, err := model.CashMovement(event.Name, command.MemberReference, command.TransactionDate,
			teller, commissionAccount, event.Amount, reference, command.BranchID)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry)
	}

	feeEntries, err := k.processSpecialFees(ctx, command, teller, reference)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, feeEntries...)

	loan.Paid = loan.Paid.Add(principal.Amount)
	loan.Balance = loan.LoanAmount.Sub(loan.Paid)
	loan.LastRefundDate = model.DateOnly(command.TransactionDate)
	if !loan.Balance.IsPositive() {
		loan.AdvancedPayment = loan.Balance.Neg()
		loan.Balance = decimal.Zero
		loan.Status = model.LoanStatusClosed
	}

	logrus.Infof("loan %s refund of %s prepared by %s, remaining balance %s",
		loan.LoanID, principal.Amount, userName(user), loan.Balance)
	return entries, loan, nil
}

// PostBulkTransfer is the batch orchestrator. It runs the pipeline, gates
// persistence on the double-entry rule over the whole generated set, and
// writes one posting record per command so the retry sweep can pick up the
// residue. Entries that fail the rule are never persisted; their commands stay
// pending.
func (k *Kolo) PostBulkTransfer(ctx context.Context, batchID string, commands []*model.PostingCommand, user *model.UserInfo) (*model.BulkResult, error) {
	ctx, span := transferTracer.Start(ctx, "Posting bulk transfer batch")
	defer span.End()

	if batchID == "" {
		batchID = model.GenerateUUIDWithSuffix("btc")
	}

	result, failures, loanUpdates := k.runTransferPipeline(ctx, commands, user)

	persisted := false
	if len(result.Entries) > 0 {
		if model.EvaluateDoubleEntryRule(result.Entries) {
			if err := k.datasource.RecordEntries(ctx, result.Entries); err != nil {
				return nil, logAndRecordError(span, "recording batch entries failed: ", err)
			}
			persisted = true
			k.applyLoanUpdates(ctx, loanUpdates)
			span.AddEvent("Batch entries recorded", trace.WithAttributes(
				attribute.String("batch.id", batchID),
				attribute.Int("batch.entries", len(result.Entries))))
		} else {
			result.Message = "double-entry validation failed, batch held for retry"
			logrus.Warnf("batch %s failed double-entry validation, %d entries held", batchID, len(result.Entries))
		}
	}

	now := time.Now()
	records := make([]*model.PostingRecord, 0, len(commands))
	for _, command := range commands {
		record := &model.PostingRecord{
			RecordID:  model.GenerateUUIDWithSuffix("pst"),
			BatchID:   batchID,
			Command:   command,
			Status:    model.PostingStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if msg, failed := failures[command.CommandID]; failed {
			record.Status = model.PostingStatusError
			record.LastError = msg
		} else if persisted {
			record.Status = model.PostingStatusCompleted
		}
		records = append(records, record)
	}
	if err := k.datasource.RecordPostingRecords(ctx, records); err != nil {
		return nil, logAndRecordError(span, "recording posting records failed: ", err)
	}

	k.audit.LogAndAudit(ctx, userToken(user), "PostBulkTransfer", userName(user), result,
		fmt.Sprintf("batch %s: %d entries, %d failed commands", batchID, len(result.Entries), len(result.Failed)),
		audit.LevelInfo, http.StatusOK)
	return result, nil
}

// applyLoanUpdates writes the repayment state the pipeline prepared. It runs
// only after the batch entries have been recorded; a failure here is logged
// instead of returned, since the entries are already committed and failing the
// task would post them again on retry.
func (k *Kolo) applyLoanUpdates(ctx context.Context, loans []*model.Loan) {
	for _, loan := range loans {
		if err := k.datasource.UpdateLoanRepayment(ctx, loan); err != nil {
			logrus.Errorf("updating repayment state for loan %s failed: %v", loan.LoanID, err)
			continue
		}
		logrus.Infof("loan %s repayment applied, remaining balance %s", loan.LoanID, loan.Balance)
	}
}

func userName(user *model.UserInfo) string {
	if user == nil || user.UserName == "" {
		return "system"
	}
	return user.UserName
}

func userToken(user *model.UserInfo) string {
	if user == nil {
		return ""
	}
	return user.Token
}
