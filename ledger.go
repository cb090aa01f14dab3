package kolo

import (
	"context"

	"github.com/kolofinance/kolo/model"
)

// GetEntriesByReference returns every leg posted under one transaction
// reference, in posting order. For a balanced transaction the debits and
// credits over this set always match.
func (k *Kolo) GetEntriesByReference(ctx context.Context, reference string) ([]*model.AccountingEntry, error) {
	return k.datasource.GetEntriesByReference(ctx, reference)
}

func (k *Kolo) GetAllEntries(ctx context.Context, limit, offset int) ([]model.AccountingEntry, error) {
	return k.datasource.GetAllEntries(ctx, limit, offset)
}

// EnqueueBulkBatch hands a bulk batch to the posting workers and returns the
// generated batch id. The caller polls posting records for the outcome.
func (k *Kolo) EnqueueBulkBatch(ctx context.Context, commands []*model.PostingCommand, user *model.UserInfo) (string, error) {
	payload := &BulkBatchPayload{
		BatchID:  model.GenerateUUIDWithSuffix("btc"),
		Commands: commands,
	}
	if user != nil {
		payload.User = *user
	}
	if err := k.queue.EnqueueBulkBatch(ctx, payload); err != nil {
		return "", err
	}
	return payload.BatchID, nil
}

// EnqueueRetrySweep schedules an asynchronous sweep over pending and errored
// posting records.
func (k *Kolo) EnqueueRetrySweep(ctx context.Context, user *model.UserInfo) error {
	var u model.UserInfo
	if user != nil {
		u = *user
	}
	return k.queue.EnqueueRetrySweep(ctx, u)
}
