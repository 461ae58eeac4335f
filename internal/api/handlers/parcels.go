package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"parcel-delivery-service/internal/api/dto"
	"parcel-delivery-service/internal/domain"
	"parcel-delivery-service/internal/ports"
	"parcel-delivery-service/internal/services"
)

// Placeholders rendered while the optional parcel fields are still absent.
const (
	costPendingPlaceholder    = "No info yet."
	companyPendingPlaceholder = "Not assigned yet."
)

// ParcelHandler exposes parcel registration, retrieval and company
// assignment endpoints. Handlers stay unaware of concrete adapters.
type ParcelHandler struct {
	Users       ports.UserRepository
	Types       ports.ParcelTypeRepository
	Parcels     ports.ParcelRepository
	Coordinator *services.AssignmentCoordinator
}

func (h *ParcelHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := SessionID(r)
	if sessionID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing session")
		return
	}

	var req dto.RegisterParcelRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	parcel := domain.NewParcel{
		Name:           req.Name,
		Weight:         req.Weight,
		ContentValue:   req.ContentCost,
		ParcelTypeName: req.ParcelType,
		OwnerIdentity:  sessionID,
	}

	id, err := services.RegisterParcel(r.Context(), parcel, h.Users, h.Types, h.Parcels)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrParcelTypeNotFound):
			writeError(w, r, http.StatusNotFound, "parcel type not found")
		case isValidationError(err):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			log.Printf("register parcel failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RegisterParcelResponse{ID: id})
}

func (h *ParcelHandler) ParcelTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	types, err := h.Types.ListAll(r.Context())
	if err != nil {
		log.Printf("list parcel types failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListParcelTypesResponse{
		ParcelTypes: make([]dto.ParcelTypeResponse, 0, len(types)),
	}
	for _, t := range types {
		res.ParcelTypes = append(res.ParcelTypes, dto.ParcelTypeResponse{ID: t.ID, Name: t.Name})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *ParcelHandler) UserParcels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := SessionID(r)
	if sessionID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing session")
		return
	}

	q := r.URL.Query()

	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	offset := 0
	if v := q.Get("skip_pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "skip_pages must be non-negative")
			return
		}
		offset = n
	}

	var filter ports.ParcelFilter
	if v := q.Get("has_delivery_cost"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "has_delivery_cost must be a boolean")
			return
		}
		filter.HasDeliveryCost = &b
	}
	filter.ParcelType = q.Get("parcel_type")

	parcels, err := h.Parcels.ListByOwner(r.Context(), sessionID, filter, ports.Pagination{Limit: limit, Offset: offset})
	if err != nil {
		log.Printf("list user parcels failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListParcelsResponse{
		Parcels: make([]dto.ParcelDetailResponse, 0, len(parcels)),
	}
	for _, p := range parcels {
		res.Parcels = append(res.Parcels, toParcelDetail(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *ParcelHandler) ParcelByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := SessionID(r)
	if sessionID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing session")
		return
	}

	parcelID, err := strconv.ParseInt(r.URL.Query().Get("parcel_id"), 10, 64)
	if err != nil || parcelID < 1 {
		writeError(w, r, http.StatusBadRequest, "parcel_id must be a positive integer")
		return
	}

	parcel, err := h.Parcels.FindByID(r.Context(), sessionID, parcelID)
	if err != nil {
		if errors.Is(err, ports.ErrParcelNotFound) {
			writeError(w, r, http.StatusNotFound, "parcel not found")
			return
		}
		log.Printf("find parcel failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toParcelDetail(parcel))
}

// AssignCompany resolves concurrent assignment attempts: exactly one caller
// gets 200, the rest get 409 with the winner left untouched.
func (h *ParcelHandler) AssignCompany(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	parcelID, err := strconv.ParseInt(q.Get("parcel_id"), 10, 64)
	if err != nil || parcelID < 1 {
		writeError(w, r, http.StatusBadRequest, "parcel_id must be a positive integer")
		return
	}

	companyID, err := strconv.ParseInt(q.Get("company_id"), 10, 64)
	if err != nil || companyID < 1 {
		writeError(w, r, http.StatusBadRequest, "company_id must be a positive integer")
		return
	}

	err = h.Coordinator.Assign(r.Context(), parcelID, companyID)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "OK"})
	case errors.Is(err, ports.ErrCompanyConflict):
		writeError(w, r, http.StatusConflict, "delivery company already assigned")
	case errors.Is(err, ports.ErrParcelNotFound):
		writeError(w, r, http.StatusNotFound, "parcel not found")
	case errors.Is(err, ports.ErrCompanyNotFound):
		writeError(w, r, http.StatusNotFound, "company not found")
	default:
		log.Printf("assign company failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toParcelDetail(p *domain.Parcel) dto.ParcelDetailResponse {
	res := dto.ParcelDetailResponse{
		ID:                p.ID,
		Name:              p.Name,
		Weight:            p.Weight,
		ParcelType:        p.ParcelTypeName,
		ContentValue:      p.ContentValue,
		DeliveryCost:      costPendingPlaceholder,
		DeliveryCompanyID: companyPendingPlaceholder,
	}
	if p.DeliveryCost != nil {
		res.DeliveryCost = *p.DeliveryCost
	}
	if p.DeliveryCompanyID != nil {
		res.DeliveryCompanyID = *p.DeliveryCompanyID
	}
	return res
}

// Registration preconditions surface as 400s; everything else is a server
// fault.
func isValidationError(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr)
}
