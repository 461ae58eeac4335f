package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/ports"
)

// Postgres-backed implementation of the ParcelTypeRepository port.
// Parcel types are static reference data, read-only at runtime.
type PostgresParcelTypeRepository struct{ DB *sql.DB }

func NewPostgresParcelTypeRepository(db *sql.DB) *PostgresParcelTypeRepository {
	return &PostgresParcelTypeRepository{DB: db}
}

func (r *PostgresParcelTypeRepository) GetByName(ctx context.Context, name string) (*domain.ParcelType, error) {
	if r.DB == nil {
		return nil, errors.New("parcel type repository: DB is nil")
	}

	var pt domain.ParcelType
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name FROM parcel_types WHERE name = $1;`, name,
	).Scan(&pt.ID, &pt.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parcel type %q: %w", name, ports.ErrParcelTypeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get parcel type %q: %w", name, err)
	}

	return &pt, nil
}

func (r *PostgresParcelTypeRepository) ListAll(ctx context.Context) ([]*domain.ParcelType, error) {
	if r.DB == nil {
		return nil, errors.New("parcel type repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM parcel_types ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list parcel types: %w", err)
	}
	defer rows.Close()

	types := make([]*domain.ParcelType, 0, 8)
	for rows.Next() {
		var pt domain.ParcelType
		if err := rows.Scan(&pt.ID, &pt.Name); err != nil {
			return nil, fmt.Errorf("list parcel types: scan row: %w", err)
		}
		types = append(types, &pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parcel types: row iteration: %w", err)
	}

	return types, nil
}

// Postgres-backed implementation of the UserRepository port. The session id
// is an opaque token assigned by the API layer; its format is never
// interpreted here.
type PostgresUserRepository struct{ DB *sql.DB }

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetOrCreate inserts the user row if missing. ON CONFLICT makes the
// operation idempotent under concurrent first requests from the same
// session.
func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, sessionID string) error {
	if r.DB == nil {
		return errors.New("user repository: DB is nil")
	}
	if sessionID == "" {
		return errors.New("user repository: session id is empty")
	}

	_, err := r.DB.ExecContext(ctx, `
	INSERT INTO users (session_id)
	VALUES ($1)
	ON CONFLICT (session_id) DO NOTHING;
	`, sessionID)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}

	return nil
}
