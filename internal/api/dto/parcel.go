package dto

type RegisterParcelRequest struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	ParcelType  string  `json:"parcel_type"`
	ContentCost float64 `json:"content_cost"`
}

type RegisterParcelResponse struct {
	ID int64 `json:"id"`
}

type ParcelTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ListParcelTypesResponse struct {
	ParcelTypes []ParcelTypeResponse `json:"parcel_types"`
}

// DeliveryCost and DeliveryCompanyID hold either the numeric value or a
// human-readable placeholder while the value is still absent.
type ParcelDetailResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Weight            float64 `json:"weight"`
	ParcelType        string  `json:"parcel_type"`
	ContentValue      float64 `json:"content_value"`
	DeliveryCost      any     `json:"delivery_cost"`
	DeliveryCompanyID any     `json:"delivery_company_id"`
}

type ListParcelsResponse struct {
	Parcels []ParcelDetailResponse `json:"parcels"`
}
