package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/kolofinance/kolo/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database connection error: %v", err)
		return nil, err
	}
	err = createAccountTable(db)
	if err != nil {
		return nil, err
	}
	err = createLoanTable(db)
	if err != nil {
		return nil, err
	}
	err = createDelinquencyBracketTable(db)
	if err != nil {
		return nil, err
	}
	err = createAccountingEntryTable(db)
	if err != nil {
		return nil, err
	}
	err = createPostingRecordTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createLoanTable creates a PostgreSQL table for the Loan struct
func createLoanTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS loans (
			id SERIAL PRIMARY KEY,
			loan_id TEXT NOT NULL UNIQUE,
			application_id TEXT,
			member_reference TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			loan_amount NUMERIC NOT NULL,
			paid NUMERIC NOT NULL DEFAULT 0,
			balance NUMERIC NOT NULL,
			principal NUMERIC NOT NULL,
			interest_rate NUMERIC NOT NULL,
			duration_months INT NOT NULL,
			loan_date DATE NOT NULL,
			last_refund_date DATE,
			delinquent_days INT NOT NULL DEFAULT 0,
			delinquent_amount NUMERIC NOT NULL DEFAULT 0,
			delinquent_interest NUMERIC NOT NULL DEFAULT 0,
			is_delinquent BOOLEAN NOT NULL DEFAULT FALSE,
			delinquency_status TEXT NOT NULL DEFAULT 'CURRENT',
			delinquency_config_id TEXT,
			advanced_payment NUMERIC NOT NULL DEFAULT 0,
			last_processed_date DATE,
			status TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating loans table: %v", err)
	}
	return err
}

// createAccountTable creates a PostgreSQL table for the Account struct
func createAccountTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			account_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			number TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			product_id TEXT,
			event_code TEXT,
			branch_id TEXT NOT NULL,
			currency TEXT NOT NULL,
			balance NUMERIC NOT NULL DEFAULT 0,
			state TEXT NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating accounts table: %v", err)
	}
	return err
}

func createDelinquencyBracketTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS delinquency_brackets (
			id SERIAL PRIMARY KEY,
			config_id TEXT NOT NULL UNIQUE,
			min_days INT NOT NULL,
			max_days INT NOT NULL
		)
	`)
	if err != nil {
		log.Printf("Error creating delinquency_brackets table: %v", err)
	}
	return err
}

// createAccountingEntryTable creates a PostgreSQL table for the AccountingEntry struct
func createAccountingEntryTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounting_entries (
			id SERIAL PRIMARY KEY,
			entry_id TEXT NOT NULL UNIQUE,
			source_account_id TEXT NOT NULL REFERENCES accounts(account_id),
			destination_account_id TEXT NOT NULL REFERENCES accounts(account_id),
			amount NUMERIC NOT NULL,
			transaction_reference TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			narration TEXT,
			transaction_date DATE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating accounting_entries table: %v", err)
	}
	return err
}

// createPostingRecordTable creates a PostgreSQL table for the PostingRecord struct
func createPostingRecordTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS posting_records (
			id SERIAL PRIMARY KEY,
			record_id TEXT NOT NULL UNIQUE,
			batch_id TEXT NOT NULL,
			command JSONB NOT NULL,
			status TEXT NOT NULL,
			last_error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating posting_records table: %v", err)
	}
	return err
}
