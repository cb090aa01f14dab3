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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"KOLO_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"KOLO_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"KOLO_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"KOLO_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"KOLO_REDIS_DNS"`
}

// IdentityConfig points at the identity service that issues the bearer
// tokens used for sibling-service calls.
type IdentityConfig struct {
	Url      string `json:"url" envconfig:"KOLO_IDENTITY_URL"`
	Email    string `json:"email" envconfig:"KOLO_IDENTITY_EMAIL"`
	Password string `json:"password" envconfig:"KOLO_IDENTITY_PASSWORD"`
	Timeout  int    `json:"timeout" envconfig:"KOLO_IDENTITY_TIMEOUT"`
}

type AuditConfig struct {
	Url              string `json:"url" envconfig:"KOLO_AUDIT_URL"`
	MicroserviceName string `json:"microservice_name" envconfig:"KOLO_AUDIT_MICROSERVICE_NAME"`
}

// LoanApplicationConfig points at the loan-application service used to
// refresh loan durations during delinquency processing.
type LoanApplicationConfig struct {
	Url string `json:"url" envconfig:"KOLO_LOAN_APPLICATION_URL"`
}

type QueueConfig struct {
	PostingQueue   string `json:"posting_queue" envconfig:"KOLO_QUEUE_POSTING"`
	RetryQueue     string `json:"retry_queue" envconfig:"KOLO_QUEUE_RETRY"`
	NumberOfQueues int    `json:"number_of_queues" envconfig:"KOLO_QUEUE_NUMBER_OF_QUEUES"`
	MonitoringPort string `json:"monitoring_port" envconfig:"KOLO_QUEUE_MONITORING_PORT"`
}

// DelinquencyConfig controls the daily loan delinquency run.
// RunHour is the local wall-clock hour the scheduler fires at.
type DelinquencyConfig struct {
	RunHour     int `json:"run_hour" envconfig:"KOLO_DELINQUENCY_RUN_HOUR"`
	GraceMonths int `json:"grace_months" envconfig:"KOLO_DELINQUENCY_GRACE_MONTHS"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"KOLO_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"KOLO_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"KOLO_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type Configuration struct {
	ProjectName     string                `json:"project_name" envconfig:"KOLO_PROJECT_NAME"`
	Server          ServerConfig          `json:"server"`
	DataSource      DataSourceConfig      `json:"data_source"`
	Redis           RedisConfig           `json:"redis"`
	Identity        IdentityConfig        `json:"identity"`
	Audit           AuditConfig           `json:"audit"`
	LoanApplication LoanApplicationConfig `json:"loan_application"`
	Queue           QueueConfig           `json:"queue"`
	Delinquency     DelinquencyConfig     `json:"delinquency"`
	RateLimit       RateLimitConfig       `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("kolo", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called kolo.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Kolo Back Office"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Queue.PostingQueue == "" {
		cnf.Queue.PostingQueue = "new:posting"
	}
	if cnf.Queue.RetryQueue == "" {
		cnf.Queue.RetryQueue = "new:posting_retry"
	}
	if cnf.Queue.NumberOfQueues == 0 {
		cnf.Queue.NumberOfQueues = 20
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5004"
	}

	if cnf.Audit.MicroserviceName == "" {
		cnf.Audit.MicroserviceName = "TransactionManagement"
	}

	if cnf.Identity.Timeout == 0 {
		cnf.Identity.Timeout = 30
	}

	if cnf.Delinquency.RunHour == 0 {
		cnf.Delinquency.RunHour = 2
	}
	if cnf.Delinquency.RunHour < 0 || cnf.Delinquency.RunHour > 23 {
		return errors.New("delinquency run hour must be between 0 and 23")
	}
	if cnf.Delinquency.GraceMonths == 0 {
		cnf.Delinquency.GraceMonths = 1
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
