package repositories

import (
	"context"
	"fmt"
	"sync"

	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/ports"
)

// MockStore is an in-memory stand-in for the Postgres repositories, used by
// service and handler tests. A single mutex makes each operation atomic, so
// the conditional-assignment semantics match the database contract: at most
// one concurrent caller observes the unassigned predicate.
type MockStore struct {
	mu        sync.Mutex
	nextID    int64
	parcels   map[int64]*domain.Parcel
	types     []domain.ParcelType
	companies map[int64]string
	users     map[string]struct{}

	// Queued errors returned by successive ConditionalAssignCompany calls
	// before normal behavior resumes. Used to script serialization failures.
	AssignErrs []error
}

func NewMockStore() *MockStore {
	return &MockStore{
		parcels: map[int64]*domain.Parcel{},
		types: []domain.ParcelType{
			{ID: 1, Name: "clothing"},
			{ID: 2, Name: "electronics"},
			{ID: 3, Name: "miscellaneous"},
		},
		companies: map[int64]string{
			1: "Speedy Couriers",
			2: "Northwind Logistics",
		},
		users: map[string]struct{}{},
	}
}

func (m *MockStore) InsertParcel(ctx context.Context, p domain.NewParcel, parcelTypeID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	typeName := ""
	for _, t := range m.types {
		if t.ID == parcelTypeID {
			typeName = t.Name
		}
	}

	m.parcels[m.nextID] = &domain.Parcel{
		ID:             m.nextID,
		Name:           p.Name,
		Weight:         p.Weight,
		ContentValue:   p.ContentValue,
		ParcelTypeID:   parcelTypeID,
		ParcelTypeName: typeName,
		OwnerIdentity:  p.OwnerIdentity,
	}

	return m.nextID, nil
}

func (m *MockStore) FindByID(ctx context.Context, owner string, parcelID int64) (*domain.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parcels[parcelID]
	if !ok || p.OwnerIdentity != owner {
		return nil, fmt.Errorf("find parcel %d: %w", parcelID, ports.ErrParcelNotFound)
	}

	return copyParcel(p), nil
}

func (m *MockStore) GetByID(ctx context.Context, parcelID int64) (*domain.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parcels[parcelID]
	if !ok {
		return nil, fmt.Errorf("get parcel %d: %w", parcelID, ports.ErrParcelNotFound)
	}

	return copyParcel(p), nil
}

func (m *MockStore) ListByOwner(
	ctx context.Context,
	owner string,
	f ports.ParcelFilter,
	page ports.Pagination,
) ([]*domain.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]*domain.Parcel, 0, len(m.parcels))
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.parcels[id]
		if !ok || p.OwnerIdentity != owner {
			continue
		}
		if f.HasDeliveryCost != nil && (p.DeliveryCost != nil) != *f.HasDeliveryCost {
			continue
		}
		if f.ParcelType != "" && p.ParcelTypeName != f.ParcelType {
			continue
		}
		matched = append(matched, copyParcel(p))
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := page.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], nil
}

func (m *MockStore) BulkSetCostWhereMissing(ctx context.Context, rate float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, p := range m.parcels {
		if p.DeliveryCost != nil {
			continue
		}
		cost := domain.DeliveryCost(p.Weight, p.ContentValue, rate)
		p.DeliveryCost = &cost
		n++
	}

	return n, nil
}

func (m *MockStore) ConditionalAssignCompany(ctx context.Context, parcelID, companyID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.AssignErrs) > 0 {
		err := m.AssignErrs[0]
		m.AssignErrs = m.AssignErrs[1:]
		return 0, err
	}

	if _, ok := m.companies[companyID]; !ok {
		return 0, fmt.Errorf("assign company: %w", ports.ErrCompanyNotFound)
	}

	p, ok := m.parcels[parcelID]
	if !ok || p.DeliveryCompanyID != nil {
		return 0, nil
	}

	id := companyID
	p.DeliveryCompanyID = &id
	return 1, nil
}

func (m *MockStore) GetByName(ctx context.Context, name string) (*domain.ParcelType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.types {
		if t.Name == name {
			pt := t
			return &pt, nil
		}
	}

	return nil, fmt.Errorf("parcel type %q: %w", name, ports.ErrParcelTypeNotFound)
}

func (m *MockStore) ListAll(ctx context.Context) ([]*domain.ParcelType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.ParcelType, 0, len(m.types))
	for _, t := range m.types {
		pt := t
		out = append(out, &pt)
	}

	return out, nil
}

func (m *MockStore) GetOrCreate(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[sessionID] = struct{}{}
	return nil
}

func copyParcel(p *domain.Parcel) *domain.Parcel {
	out := *p
	if p.DeliveryCost != nil {
		v := *p.DeliveryCost
		out.DeliveryCost = &v
	}
	if p.DeliveryCompanyID != nil {
		v := *p.DeliveryCompanyID
		out.DeliveryCompanyID = &v
	}
	return &out
}
