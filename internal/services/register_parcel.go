package services

import (
	"context"
	"fmt"

	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/ports"
)

// RegisterParcel validates and stores a new parcel for the calling identity.
// The user row is created on first contact; the parcel starts with neither
// delivery cost nor company, and the backfill reconciler prices it on a
// later tick.
func RegisterParcel(
	ctx context.Context,
	p domain.NewParcel,
	users ports.UserRepository,
	types ports.ParcelTypeRepository,
	parcels ports.ParcelRepository,
) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("register parcel: %w", err)
	}

	if err := users.GetOrCreate(ctx, p.OwnerIdentity); err != nil {
		return 0, fmt.Errorf("register parcel: %w", err)
	}

	parcelType, err := types.GetByName(ctx, p.ParcelTypeName)
	if err != nil {
		return 0, fmt.Errorf("register parcel: %w", err)
	}

	id, err := parcels.InsertParcel(ctx, p, parcelType.ID)
	if err != nil {
		return 0, fmt.Errorf("register parcel: %w", err)
	}

	return id, nil
}
