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
	"embed"

	"github.com/redis/go-redis/v9"

	"github.com/kolofinance/kolo/config"
	"github.com/kolofinance/kolo/database"
	"github.com/kolofinance/kolo/internal/audit"
	"github.com/kolofinance/kolo/internal/identity"
	"github.com/kolofinance/kolo/internal/loanapp"
	redis_db "github.com/kolofinance/kolo/internal/redis-db"
)

// Kolo represents the main struct for the back-office application. It wires
// the relational datasource, the Redis-backed posting queue, and the thin
// clients for the sibling services (identity, audit trail, loan origination).
type Kolo struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	identity   *identity.Client
	audit      *audit.Client
	loanapp    *loanapp.Client
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewKolo initializes a new instance of Kolo with the provided datasource.
// It fetches the configuration and initializes the Redis client, the posting
// queue, and the sibling-service clients.
func NewKolo(db database.IDataSource) (*Kolo, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient(configuration.Redis.Dns)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newKolo := &Kolo{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		identity:   identity.NewClient(configuration.Identity),
		audit:      audit.NewClient(configuration.Audit),
		loanapp:    loanapp.NewClient(configuration.LoanApplication),
	}
	return newKolo, nil
}
