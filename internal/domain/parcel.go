package domain

import "fmt"

// ValidationError marks a registration precondition failure, distinguishing
// caller mistakes from infrastructure faults.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Represents a single shipped parcel tracked by the system.
// DeliveryCost and DeliveryCompanyID start absent and are each set at most
// once: the cost by the backfill reconciler, the company by the assignment
// coordinator. Neither field ever transitions back to absent.
type Parcel struct {
	ID                int64
	Name              string
	Weight            float64
	ContentValue      float64
	ParcelTypeID      int64
	ParcelTypeName    string
	OwnerIdentity     string
	DeliveryCost      *float64
	DeliveryCompanyID *int64
}

// Static reference data describing the kind of goods in a parcel.
type ParcelType struct {
	ID   int64
	Name string
}

// A delivery company a parcel can be assigned to.
type Company struct {
	ID   int64
	Name string
}

// Input for registering a new parcel. Both optional parcel fields are
// absent on creation.
type NewParcel struct {
	Name           string
	Weight         float64
	ContentValue   float64
	ParcelTypeName string
	OwnerIdentity  string
}

// Validate checks the registration preconditions: weight and content value
// must be positive and a parcel type name must be given.
func (n NewParcel) Validate() error {
	if n.Weight <= 0 {
		return &ValidationError{msg: fmt.Sprintf("weight must be positive, got %v", n.Weight)}
	}
	if n.ContentValue <= 0 {
		return &ValidationError{msg: fmt.Sprintf("content value must be positive, got %v", n.ContentValue)}
	}
	if n.ParcelTypeName == "" {
		return &ValidationError{msg: "parcel type is required"}
	}
	return nil
}
