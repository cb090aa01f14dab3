package kolo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/model"
)

const retrySweepLimit = 500

// RetryPendingPostings re-submits posting records left pending or in error by
// earlier batches. Each record's command goes through the same pipeline as a
// fresh batch; records whose command now posts cleanly are marked completed,
// the rest keep accumulating their latest error for the next sweep.
func (k *Kolo) RetryPendingPostings(ctx context.Context, user *model.UserInfo) (*model.BulkResult, error) {
	ctx, span := transferTracer.Start(ctx, "Retrying pending postings")
	defer span.End()

	records, err := k.datasource.GetPostingRecordsByStatus(ctx,
		[]model.PostingStatus{model.PostingStatusPending, model.PostingStatusError}, retrySweepLimit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(records) == 0 {
		return &model.BulkResult{Message: "no pending postings"}, nil
	}

	commands := make([]*model.PostingCommand, 0, len(records))
	for _, record := range records {
		commands = append(commands, record.Command)
	}

	result, failures, loanUpdates := k.runTransferPipeline(ctx, commands, user)

	persisted := false
	if len(result.Entries) > 0 {
		if model.EvaluateDoubleEntryRule(result.Entries) {
			if err := k.datasource.RecordEntries(ctx, result.Entries); err != nil {
				span.RecordError(err)
				return nil, err
			}
			persisted = true
			k.applyLoanUpdates(ctx, loanUpdates)
		} else {
			result.Message = "double-entry validation failed, retry deferred"
			logrus.Warnf("retry sweep failed double-entry validation, %d entries held", len(result.Entries))
		}
	}

	for _, record := range records {
		if msg, failed := failures[record.Command.CommandID]; failed {
			if err := k.datasource.UpdatePostingRecordStatus(ctx, record.RecordID, model.PostingStatusError, msg); err != nil {
				logrus.Errorf("could not update posting record %s: %v", record.RecordID, err)
			}
			continue
		}
		if persisted {
			if err := k.datasource.UpdatePostingRecordStatus(ctx, record.RecordID, model.PostingStatusCompleted, ""); err != nil {
				logrus.Errorf("could not update posting record %s: %v", record.RecordID, err)
			}
		}
	}

	logrus.Infof("retry sweep processed %d records, %d still failing", len(records), len(result.Failed))
	k.audit.LogAndAudit(ctx, userToken(user), "RetryPendingPostings", userName(user), result,
		fmt.Sprintf("retry sweep: %d records, %d entries posted, %d still failing",
			len(records), len(result.Entries), len(result.Failed)),
		audit.LevelInfo, http.StatusOK)
	return result, nil
}
