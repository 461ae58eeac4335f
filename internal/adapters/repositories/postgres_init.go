package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		session_id VARCHAR(50) PRIMARY KEY
	);
	`

	createParcelTypesQuery := `
	CREATE TABLE IF NOT EXISTS parcel_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);
	`

	createCompaniesQuery := `
	CREATE TABLE IF NOT EXISTS companies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);
	`

	createParcelsQuery := `
	CREATE TABLE IF NOT EXISTS parcels (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL CHECK (weight > 0),
		content_value DOUBLE PRECISION NOT NULL CHECK (content_value > 0),
		parcel_type_id BIGINT NOT NULL REFERENCES parcel_types(id),
		owner_identity VARCHAR(50) NOT NULL REFERENCES users(session_id),
		delivery_cost DOUBLE PRECISION,
		delivery_company_id BIGINT REFERENCES companies(id)
	);
	`

	createOwnerIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_parcels_owner_identity
	ON parcels(owner_identity);
	`

	// Partial index keeps the backfill predicate cheap as priced rows grow.
	createUnpricedIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_parcels_unpriced
	ON parcels(id) WHERE delivery_cost IS NULL;
	`

	statements := []string{
		createUsersQuery,
		createParcelTypesQuery,
		createCompaniesQuery,
		createParcelsQuery,
		createOwnerIndexQuery,
		createUnpricedIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Static reference rows the service expects to exist.
var (
	seedParcelTypes = []string{"clothing", "electronics", "miscellaneous"}
	seedCompanies   = []string{"Speedy Couriers", "Northwind Logistics", "Atlas Freight"}
)

// SeedReferenceData inserts the fixed parcel types and delivery companies.
// Idempotent: existing rows are left untouched.
func SeedReferenceData(db *sql.DB) error {
	if db == nil {
		return errors.New("seed reference data: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed reference data: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	typeStmt, err := tx.Prepare(`
	INSERT INTO parcel_types (name)
	VALUES ($1)
	ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed reference data: prepare parcel type insert: %w", err)
	}
	defer typeStmt.Close()

	for _, name := range seedParcelTypes {
		if _, err := typeStmt.Exec(name); err != nil {
			return fmt.Errorf("seed reference data: insert parcel type %q: %w", name, err)
		}
	}

	companyStmt, err := tx.Prepare(`
	INSERT INTO companies (name)
	VALUES ($1)
	ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed reference data: prepare company insert: %w", err)
	}
	defer companyStmt.Close()

	for _, name := range seedCompanies {
		if _, err := companyStmt.Exec(name); err != nil {
			return fmt.Errorf("seed reference data: insert company %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed reference data: commit tx: %w", err)
	}

	return nil
}
