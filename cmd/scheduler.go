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
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// schedulerCommands defines the "scheduler" command, which runs the daily
// loan delinquency batch at the configured hour until interrupted.
func schedulerCommands(k *koloInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "start the daily delinquency scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := k.kolo.StartDelinquencyScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
