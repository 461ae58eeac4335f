package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcel-delivery-service/internal/adapters/cache"
	"parcel-delivery-service/internal/adapters/repositories"
	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/ports"
)

func registerTestParcel(t *testing.T, store *repositories.MockStore, weight, value float64) int64 {
	t.Helper()

	id, err := RegisterParcel(context.Background(), domain.NewParcel{
		Name:           "test parcel",
		Weight:         weight,
		ContentValue:   value,
		ParcelTypeName: "electronics",
		OwnerIdentity:  "session-1",
	}, store, store, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return id
}

func TestBackfillPricesUnpricedParcelsOnce(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMockStore()
	id := registerTestParcel(t, store, 10, 100)

	c := cache.NewMemoryRateCache()
	source := &scriptedSource{rate: 90}
	rates := NewRateService(c, source, 5*time.Minute)

	reconciler := NewBackfillReconciler(rates, store)
	if err := reconciler.Tick(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parcel, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parcel.DeliveryCost == nil {
		t.Fatalf("expected delivery cost after tick")
	}
	if *parcel.DeliveryCost != 540 {
		t.Fatalf("delivery cost = %v, want 540", *parcel.DeliveryCost)
	}

	// Second tick at a different rate must not reprice the parcel.
	source.rate = 95
	if err := rates.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reconciler.Tick(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parcel, err = store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *parcel.DeliveryCost != 540 {
		t.Fatalf("delivery cost changed to %v after second tick, want 540", *parcel.DeliveryCost)
	}

	// A parcel registered between ticks is priced at the current rate.
	id2 := registerTestParcel(t, store, 2, 50)
	if err := reconciler.Tick(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parcel2, err := store.GetByID(ctx, id2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parcel2.DeliveryCost == nil {
		t.Fatalf("expected second parcel to be priced on a later tick")
	}
	if want := domain.DeliveryCost(2, 50, 95); *parcel2.DeliveryCost != want {
		t.Fatalf("delivery cost = %v, want %v", *parcel2.DeliveryCost, want)
	}
}

func TestBackfillSkipsTickWhenRateUnavailable(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMockStore()
	id := registerTestParcel(t, store, 10, 100)

	source := &scriptedSource{err: &ports.FetchError{Kind: ports.FetchNetwork, Err: errors.New("down")}}
	rates := NewRateService(cache.NewMemoryRateCache(), source, 5*time.Minute)

	reconciler := NewBackfillReconciler(rates, store)
	if err := reconciler.Tick(ctx); err != nil {
		t.Fatalf("unavailable rate must skip the tick, not fail it: %v", err)
	}

	parcel, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parcel.DeliveryCost != nil {
		t.Fatalf("parcel must stay unpriced when no rate exists")
	}
}
