package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/platform/obs"
	"parcel-delivery-service/internal/ports"
)

// Postgres-backed implementation of the ParcelRepository port.
//
// Both mutation paths for delivery_cost and delivery_company_id are single
// predicate-scoped statements executed by the database, so concurrent
// writers cannot lose updates regardless of in-process interleaving.
type PostgresParcelRepository struct{ DB *sql.DB }

func NewPostgresParcelRepository(db *sql.DB) *PostgresParcelRepository {
	return &PostgresParcelRepository{DB: db}
}

// Insert a new parcel; delivery cost and company start absent.
func (r *PostgresParcelRepository) InsertParcel(
	ctx context.Context,
	p domain.NewParcel,
	parcelTypeID int64,
) (int64, error) {
	if r.DB == nil {
		return 0, errors.New("parcel repository: DB is nil")
	}

	query := `
	INSERT INTO parcels (name, weight, content_value, parcel_type_id, owner_identity)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;
	`

	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		p.Name, p.Weight, p.ContentValue, parcelTypeID, p.OwnerIdentity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert parcel: %w", err)
	}

	return id, nil
}

// Retrieve one parcel owned by the given identity, joined with its type name.
func (r *PostgresParcelRepository) FindByID(
	ctx context.Context,
	owner string,
	parcelID int64,
) (*domain.Parcel, error) {
	if r.DB == nil {
		return nil, errors.New("parcel repository: DB is nil")
	}

	query := `
	SELECT p.id, p.name, p.weight, p.content_value, p.parcel_type_id, pt.name,
	       p.owner_identity, p.delivery_cost, p.delivery_company_id
	FROM parcels p
	JOIN parcel_types pt ON pt.id = p.parcel_type_id
	WHERE p.owner_identity = $1 AND p.id = $2;
	`

	var parcel domain.Parcel
	err := r.DB.QueryRowContext(ctx, query, owner, parcelID).Scan(
		&parcel.ID,
		&parcel.Name,
		&parcel.Weight,
		&parcel.ContentValue,
		&parcel.ParcelTypeID,
		&parcel.ParcelTypeName,
		&parcel.OwnerIdentity,
		&parcel.DeliveryCost,
		&parcel.DeliveryCompanyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find parcel %d: %w", parcelID, ports.ErrParcelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find parcel %d: %w", parcelID, err)
	}

	return &parcel, nil
}

// Retrieve one parcel regardless of owner.
func (r *PostgresParcelRepository) GetByID(ctx context.Context, parcelID int64) (*domain.Parcel, error) {
	if r.DB == nil {
		return nil, errors.New("parcel repository: DB is nil")
	}

	query := `
	SELECT p.id, p.name, p.weight, p.content_value, p.parcel_type_id, pt.name,
	       p.owner_identity, p.delivery_cost, p.delivery_company_id
	FROM parcels p
	JOIN parcel_types pt ON pt.id = p.parcel_type_id
	WHERE p.id = $1;
	`

	var parcel domain.Parcel
	err := r.DB.QueryRowContext(ctx, query, parcelID).Scan(
		&parcel.ID,
		&parcel.Name,
		&parcel.Weight,
		&parcel.ContentValue,
		&parcel.ParcelTypeID,
		&parcel.ParcelTypeName,
		&parcel.OwnerIdentity,
		&parcel.DeliveryCost,
		&parcel.DeliveryCompanyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get parcel %d: %w", parcelID, ports.ErrParcelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get parcel %d: %w", parcelID, err)
	}

	return &parcel, nil
}

// List parcels owned by the given identity with optional filters.
func (r *PostgresParcelRepository) ListByOwner(
	ctx context.Context,
	owner string,
	f ports.ParcelFilter,
	page ports.Pagination,
) (_ []*domain.Parcel, err error) {
	defer obs.Time(ctx, "repo.ListByOwner")(&err)

	if r.DB == nil {
		return nil, errors.New("parcel repository: DB is nil")
	}

	query := `
	SELECT p.id, p.name, p.weight, p.content_value, p.parcel_type_id, pt.name,
	       p.owner_identity, p.delivery_cost, p.delivery_company_id
	FROM parcels p
	JOIN parcel_types pt ON pt.id = p.parcel_type_id
	WHERE p.owner_identity = $1
	`
	args := []any{owner}

	if f.HasDeliveryCost != nil {
		if *f.HasDeliveryCost {
			query += " AND p.delivery_cost IS NOT NULL"
		} else {
			query += " AND p.delivery_cost IS NULL"
		}
	}
	if f.ParcelType != "" {
		args = append(args, f.ParcelType)
		query += fmt.Sprintf(" AND pt.name = $%d", len(args))
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY p.id LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parcels: query parcels table: %w", err)
	}
	defer rows.Close()

	parcels := make([]*domain.Parcel, 0, limit)
	for rows.Next() {
		var parcel domain.Parcel
		err := rows.Scan(
			&parcel.ID,
			&parcel.Name,
			&parcel.Weight,
			&parcel.ContentValue,
			&parcel.ParcelTypeID,
			&parcel.ParcelTypeName,
			&parcel.OwnerIdentity,
			&parcel.DeliveryCost,
			&parcel.DeliveryCompanyID,
		)
		if err != nil {
			return nil, fmt.Errorf("list parcels: scan row: %w", err)
		}
		parcels = append(parcels, &parcel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parcels: row iteration: %w", err)
	}

	return parcels, nil
}

// Price every unpriced parcel in one atomic statement. A parcel registered
// while the statement runs is either included here or picked up by a later
// tick; priced parcels are excluded by the predicate, which makes re-runs
// no-ops.
func (r *PostgresParcelRepository) BulkSetCostWhereMissing(
	ctx context.Context,
	rate float64,
) (_ int64, err error) {
	defer obs.Time(ctx, "repo.BulkSetCostWhereMissing")(&err)

	if r.DB == nil {
		return 0, errors.New("parcel repository: DB is nil")
	}

	query := `
	UPDATE parcels
	SET delivery_cost = (weight * $2 + content_value * $3) * $1
	WHERE delivery_cost IS NULL;
	`

	res, err := r.DB.ExecContext(ctx, query, rate, domain.WeightCostFactor, domain.ValueCostFactor)
	if err != nil {
		return 0, fmt.Errorf("bulk set delivery cost: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk set delivery cost: rows affected: %w", err)
	}

	return n, nil
}

// Assign the company only if the parcel is still unassigned. Runs under
// SERIALIZABLE isolation so two concurrent writers cannot both observe the
// NULL predicate; the loser either affects zero rows or aborts with a
// serialization failure (mapped to ports.ErrSerialization for the caller
// to retry).
func (r *PostgresParcelRepository) ConditionalAssignCompany(
	ctx context.Context,
	parcelID, companyID int64,
) (int64, error) {
	if r.DB == nil {
		return 0, errors.New("parcel repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("assign company: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	UPDATE parcels
	SET delivery_company_id = $1
	WHERE id = $2 AND delivery_company_id IS NULL;
	`

	res, err := tx.ExecContext(ctx, query, companyID, parcelID)
	if err != nil {
		return 0, fmt.Errorf("assign company: %w", mapPgError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("assign company: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("assign company: commit: %w", mapPgError(err))
	}

	return n, nil
}

// Postgres error codes the assignment path must distinguish.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgForeignKeyViolation  = "23503"
)

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %v", ports.ErrSerialization, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %v", ports.ErrCompanyNotFound, err)
	}

	return err
}
