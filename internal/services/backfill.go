package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"parcel-delivery-service/internal/platform/obs"
	"parcel-delivery-service/internal/ports"
)

// BackfillReconciler retroactively prices parcels registered before an
// exchange rate was available. Each tick issues one atomic bulk update; the
// delivery_cost IS NULL predicate makes repeated ticks idempotent, so a
// parcel is priced exactly once no matter how the rate moves afterwards.
type BackfillReconciler struct {
	rates *RateService
	repo  ports.ParcelRepository
}

func NewBackfillReconciler(rates *RateService, repo ports.ParcelRepository) *BackfillReconciler {
	return &BackfillReconciler{rates: rates, repo: repo}
}

// Tick runs one reconciliation pass. An unavailable rate skips the tick
// without error; the next tick retries naturally.
func (b *BackfillReconciler) Tick(ctx context.Context) error {
	rate, err := b.rates.GetRate(ctx)
	if errors.Is(err, ports.ErrRateUnavailable) {
		obs.Event(obs.EventBackfillSkipped, "reason=rate_unavailable")
		return nil
	}
	if err != nil {
		return fmt.Errorf("backfill tick: %w", err)
	}

	n, err := b.repo.BulkSetCostWhereMissing(ctx, rate)
	if err != nil {
		return fmt.Errorf("backfill tick: bulk set costs: %w", err)
	}

	if n > 0 {
		log.Printf("backfill: priced=%d rate=%v", n, rate)
	}

	return nil
}
