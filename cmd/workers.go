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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/kolofinance/kolo"
	"github.com/kolofinance/kolo/config"
	redis_db "github.com/kolofinance/kolo/internal/redis-db"
	"github.com/kolofinance/kolo/model"
)

// processPostingBatch posts a queued bulk-transfer batch. Command-level
// failures are recorded as posting records and do not fail the task; only
// infrastructure errors are returned, which triggers an asynq retry of the
// whole batch. The batch id doubles as the task id, so a retried batch cannot
// be enqueued twice.
func (k *koloInstance) processPostingBatch(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("kolo.workers").Start(ctx, "Process Posting Batch From Redis Queue")
	defer span.End()

	var payload kolo.BulkBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return err
	}

	result, err := k.kolo.PostBulkTransfer(ctx, payload.BatchID, payload.Commands, &payload.User)
	if err != nil {
		logrus.Infof("Batch %s pushed back for retry due to error: %v", payload.BatchID, err)
		return err
	}

	log.Printf(" [*] Batch Posted %s (%d entries, %d failed commands)",
		payload.BatchID, len(result.Entries), len(result.Failed))
	return nil
}

// processRetrySweep re-submits pending and errored posting records.
func (k *koloInstance) processRetrySweep(ctx context.Context, t *asynq.Task) error {
	var user model.UserInfo
	if err := json.Unmarshal(t.Payload(), &user); err != nil {
		logrus.Error(err)
		return err
	}

	result, err := k.kolo.RetryPendingPostings(ctx, &user)
	if err != nil {
		return err
	}

	log.Printf(" [*] Retry Sweep Complete (%d entries, %d still failing)",
		len(result.Entries), len(result.Failed))
	return nil
}

func initializeQueues() map[string]int {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return nil
	}

	queues := make(map[string]int)
	queues[cfg.Queue.RetryQueue] = 1

	for i := 1; i <= cfg.Queue.NumberOfQueues; i++ {
		queueName := fmt.Sprintf("%s_%d", cfg.Queue.PostingQueue, i)
		queues[queueName] = 1
	}
	return queues
}

func initializeWorkerServer(conf *config.Configuration, queues map[string]int) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: 1,
			Queues:      queues,
		},
	), nil
}

func initializeTaskHandlers(k *koloInstance, mux *asynq.ServeMux) {
	cfg, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config, using defaults: %v", err)
		return
	}

	// Register handlers for the posting queues
	for i := 1; i <= cfg.Queue.NumberOfQueues; i++ {
		queueName := fmt.Sprintf("%s_%d", cfg.Queue.PostingQueue, i)
		mux.HandleFunc(queueName, k.processPostingBatch)
	}

	mux.HandleFunc(cfg.Queue.RetryQueue, k.processRetrySweep)
}

// workerCommands defines the "workers" command to start worker processes.
// The workers listen to the posting queues and the retry-sweep queue.
func workerCommands(k *koloInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start kolo workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			queues := initializeQueues()

			srv, err := initializeWorkerServer(conf, queues)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(k, mux)

			// Start asynqmon server for health checks and monitoring
			redisOption, _ := redis_db.ParseRedisURL(conf.Redis.Dns)
			h := asynqmon.New(asynqmon.Options{
				RootPath: "/monitoring",
				RedisConnOpt: asynq.RedisClientOpt{
					Addr:      redisOption.Addr,
					Password:  redisOption.Password,
					DB:        redisOption.DB,
					TLSConfig: redisOption.TLSConfig,
				},
			})

			go func() {
				monitoringAddr := fmt.Sprintf(":%s", conf.Queue.MonitoringPort)
				log.Printf("Asynqmon server listening on %s/monitoring", monitoringAddr)
				if err := http.ListenAndServe(monitoringAddr, h); err != nil {
					log.Fatalf("could not start asynqmon server: %v", err)
				}
			}()

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
