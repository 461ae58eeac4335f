package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parcel-delivery-service/internal/platform/obs"
	"parcel-delivery-service/internal/ports"
)

// AssignmentCoordinator serializes concurrent attempts to assign a delivery
// company to a parcel. The decisive step is the store's conditional write;
// the coordinator's job is to retry serialization aborts (where the attempt
// may still win) and to translate a zero-row outcome into conflict or
// not-found. An assigned parcel never changes company.
type AssignmentCoordinator struct {
	repo ports.ParcelRepository

	maxAttempts int
	retryDelay  time.Duration
}

func NewAssignmentCoordinator(repo ports.ParcelRepository) *AssignmentCoordinator {
	return &AssignmentCoordinator{
		repo:        repo,
		maxAttempts: 3,
		retryDelay:  25 * time.Millisecond,
	}
}

// Assign records companyID on the parcel if no company is assigned yet.
//
// Returns nil when this attempt won, ErrCompanyConflict when another
// attempt already did, ErrParcelNotFound / ErrCompanyNotFound for unknown
// ids. Store errors other than serialization aborts are returned as-is and
// never retried here: the conditional write is predicate-guarded, so the
// caller can safely retry the whole attempt.
func (c *AssignmentCoordinator) Assign(ctx context.Context, parcelID, companyID int64) (err error) {
	defer obs.Time(ctx, "assignment.Assign")(&err)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		affected, err := c.repo.ConditionalAssignCompany(ctx, parcelID, companyID)
		if err != nil {
			if errors.Is(err, ports.ErrSerialization) && attempt < c.maxAttempts {
				lastErr = err

				timer := time.NewTimer(c.retryDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
				continue
			}
			return fmt.Errorf("assign company %d to parcel %d: %w", companyID, parcelID, err)
		}

		if affected == 0 {
			return c.classifyZeroRows(ctx, parcelID, companyID)
		}

		return nil
	}

	return fmt.Errorf("assign company %d to parcel %d: retries exhausted: %w", companyID, parcelID, lastErr)
}

// A zero-row conditional write means the predicate did not hold: either the
// parcel does not exist or another assignment already won.
func (c *AssignmentCoordinator) classifyZeroRows(ctx context.Context, parcelID, companyID int64) error {
	parcel, err := c.repo.GetByID(ctx, parcelID)
	if err != nil {
		if errors.Is(err, ports.ErrParcelNotFound) {
			return fmt.Errorf("assign company %d: %w", companyID, err)
		}
		return fmt.Errorf("assign company %d to parcel %d: verify outcome: %w", companyID, parcelID, err)
	}

	if parcel.DeliveryCompanyID != nil {
		obs.Event(obs.EventAssignmentConflict, "parcel_id=%d company_id=%d winner=%d",
			parcelID, companyID, *parcel.DeliveryCompanyID)
		return fmt.Errorf("assign company %d to parcel %d: %w", companyID, parcelID, ports.ErrCompanyConflict)
	}

	// Unassigned yet zero rows affected should not happen outside a lost
	// race with a concurrent delete; report it as a conflict-free failure.
	return fmt.Errorf("assign company %d to parcel %d: conditional write affected no rows", companyID, parcelID)
}
