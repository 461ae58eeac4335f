package ports

import (
	"context"

	"parcel-delivery-service/internal/domain"
)

// Optional filters applied when listing an owner's parcels.
type ParcelFilter struct {
	// When set, keep only parcels that do (true) or do not (false) have a
	// delivery cost.
	HasDeliveryCost *bool
	// When non-empty, keep only parcels of this type name.
	ParcelType string
}

type Pagination struct {
	Limit  int
	Offset int
}

// Port: persistence boundary for parcel records.
//
// BulkSetCostWhereMissing and ConditionalAssignCompany are the sole mutation
// paths for delivery_cost and delivery_company_id. Both must execute as single
// predicate-scoped statements evaluated by the store, never as
// read-modify-write in application code.
type ParcelRepository interface {
	// Insert a new parcel with cost and company absent; returns the new id.
	InsertParcel(ctx context.Context, p domain.NewParcel, parcelTypeID int64) (int64, error)

	// Retrieve one parcel owned by the given identity, or ErrParcelNotFound.
	FindByID(ctx context.Context, owner string, parcelID int64) (*domain.Parcel, error)

	// Retrieve one parcel regardless of owner, or ErrParcelNotFound. Used by
	// the assignment coordinator to tell a missing parcel from a lost race.
	GetByID(ctx context.Context, parcelID int64) (*domain.Parcel, error)

	// List parcels owned by the given identity, joined with their type name.
	ListByOwner(ctx context.Context, owner string, f ParcelFilter, p Pagination) ([]*domain.Parcel, error)

	// Set delivery_cost = (weight*weightFactor + content_value*valueFactor) * rate
	// for every parcel whose cost is absent, in one atomic statement.
	// Returns the number of parcels priced.
	BulkSetCostWhereMissing(ctx context.Context, rate float64) (int64, error)

	// Set delivery_company_id for the parcel only if it is currently unset,
	// under an isolation level that lets at most one concurrent caller win.
	// Returns the number of rows affected (0 or 1). Serialization failures
	// raised by the isolation mechanism wrap ErrSerialization; an unknown
	// company wraps ErrCompanyNotFound.
	ConditionalAssignCompany(ctx context.Context, parcelID, companyID int64) (int64, error)
}

// Port: static reference data lookups.
type ParcelTypeRepository interface {
	GetByName(ctx context.Context, name string) (*domain.ParcelType, error)
	ListAll(ctx context.Context) ([]*domain.ParcelType, error)
}

// Port: per-caller identity rows keyed by the opaque session id.
type UserRepository interface {
	// Create the user row if it does not exist yet; idempotent.
	GetOrCreate(ctx context.Context, sessionID string) error
}
