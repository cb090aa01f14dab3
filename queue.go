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

package kolo

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"

	"github.com/hibiken/asynq"

	"github.com/kolofinance/kolo/config"
	redis_db "github.com/kolofinance/kolo/internal/redis-db"
	"github.com/kolofinance/kolo/model"
)

// Queue wraps the asynq client used to hand bulk posting batches and retry
// sweeps to the worker process.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// BulkBatchPayload is the task payload for a queued bulk-transfer batch.
type BulkBatchPayload struct {
	BatchID  string                  `json:"batch_id"`
	Commands []*model.PostingCommand `json:"commands"`
	User     model.UserInfo          `json:"user"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueBulkBatch enqueues a bulk-transfer batch for the workers. Batches
// are distributed across the posting queues by hashing the batch id, so one
// slow batch does not starve the others; commands inside a batch are still
// processed strictly in list order by a single worker.
func (q *Queue) EnqueueBulkBatch(ctx context.Context, payload *BulkBatchPayload) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	queueIndex := hashBatchID(payload.BatchID) % cfg.Queue.NumberOfQueues
	queueName := fmt.Sprintf("%s_%d", cfg.Queue.PostingQueue, queueIndex+1)

	taskOptions := []asynq.Option{asynq.TaskID(payload.BatchID), asynq.Queue(queueName), asynq.MaxRetry(5)}
	task := asynq.NewTask(queueName, data, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued bulk batch: %s (%d commands)", payload.BatchID, len(payload.Commands))
	return nil
}

// EnqueueRetrySweep enqueues a sweep of the pending/error posting records.
func (q *Queue) EnqueueRetrySweep(ctx context.Context, user model.UserInfo) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	task := asynq.NewTask(cfg.Queue.RetryQueue, data, asynq.Queue(cfg.Queue.RetryQueue))
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued retry sweep for %s", user.UserName)
	return nil
}

// hashBatchID returns a consistent hash value for a batch id.
func hashBatchID(batchID string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(batchID))
	return int(hasher.Sum32())
}
