package domain

// Pricing factors applied to parcel weight and declared content value.
// The bulk backfill statement receives these as parameters so the SQL path
// and this function always agree.
const (
	WeightCostFactor = 0.5
	ValueCostFactor  = 0.01
)

// DeliveryCost computes the delivery price of a parcel at the given USD
// exchange rate. Pure and deterministic; callers guarantee weight,
// contentValue and rate are positive.
func DeliveryCost(weight, contentValue, rate float64) float64 {
	return (weight*WeightCostFactor + contentValue*ValueCostFactor) * rate
}
