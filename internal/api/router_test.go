package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parcel-delivery-service/internal/adapters/repositories"
	"parcel-delivery-service/internal/api/dto"
	"parcel-delivery-service/internal/services"
)

func newTestRouter(store *repositories.MockStore) http.Handler {
	return NewRouter(RouterConfig{
		Users:          store,
		Types:          store,
		Parcels:        store,
		Coordinator:    services.NewAssignmentCoordinator(store),
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	})
}

func TestSessionCookieAssignedOnFirstRequest(t *testing.T) {
	router := newTestRouter(repositories.NewMockStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatalf("expected a session_id cookie on first contact")
	}

	// A caller presenting the cookie keeps their identity: no new cookie.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			t.Fatalf("existing session must not be reassigned")
		}
	}
}

func TestRegisterAssignAndFetchParcel(t *testing.T) {
	store := repositories.NewMockStore()
	router := newTestRouter(store)
	cookie := &http.Cookie{Name: "session_id", Value: "session-test-1"}

	// Register.
	body := `{"name":"laptop","weight":10,"parcel_type":"electronics","content_cost":100}`
	req := httptest.NewRequest(http.MethodPost, "/parcel/register", strings.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var registered dto.RegisterParcelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.ID == 0 {
		t.Fatalf("expected a parcel id")
	}

	// Fetch: cost and company still pending.
	req = httptest.NewRequest(http.MethodGet, "/parcel/parcel-by-id?parcel_id=1", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var detail dto.ParcelDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail response: %v", err)
	}
	if detail.DeliveryCost != "No info yet." {
		t.Fatalf("delivery_cost = %v, want pending placeholder", detail.DeliveryCost)
	}
	if detail.DeliveryCompanyID != "Not assigned yet." {
		t.Fatalf("delivery_company_id = %v, want pending placeholder", detail.DeliveryCompanyID)
	}

	// Assign once: OK. Assign again: conflict.
	req = httptest.NewRequest(http.MethodPut, "/parcel/assign-company?parcel_id=1&company_id=1", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/parcel/assign-company?parcel_id=1&company_id=2", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second assign status = %d, want 409", rec.Code)
	}

	// The winner is visible on the parcel.
	req = httptest.NewRequest(http.MethodGet, "/parcel/parcel-by-id?parcel_id=1", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail response: %v", err)
	}
	if got, ok := detail.DeliveryCompanyID.(float64); !ok || got != 1 {
		t.Fatalf("delivery_company_id = %v, want 1", detail.DeliveryCompanyID)
	}
}

func TestRegisterRejectsInvalidParcel(t *testing.T) {
	router := newTestRouter(repositories.NewMockStore())
	cookie := &http.Cookie{Name: "session_id", Value: "session-test-2"}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"non-positive weight", `{"name":"x","weight":0,"parcel_type":"clothing","content_cost":5}`, http.StatusBadRequest},
		{"unknown parcel type", `{"name":"x","weight":1,"parcel_type":"livestock","content_cost":5}`, http.StatusNotFound},
		{"unknown field", `{"name":"x","weight":1,"parcel_type":"clothing","content_cost":5,"extra":true}`, http.StatusBadRequest},
		{"malformed json", `{"name":`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/parcel/register", strings.NewReader(tc.body))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestUserParcelsFilters(t *testing.T) {
	store := repositories.NewMockStore()
	router := newTestRouter(store)
	cookie := &http.Cookie{Name: "session_id", Value: "session-test-3"}

	for _, body := range []string{
		`{"name":"shirt","weight":1,"parcel_type":"clothing","content_cost":20}`,
		`{"name":"phone","weight":0.5,"parcel_type":"electronics","content_cost":300}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/parcel/register", strings.NewReader(body))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/parcel/user-parcels?parcel_type=clothing", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var list dto.ListParcelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list.Parcels) != 1 || list.Parcels[0].Name != "shirt" {
		t.Fatalf("filtered parcels = %+v, want only the clothing parcel", list.Parcels)
	}

	// Another session sees none of them.
	req = httptest.NewRequest(http.MethodGet, "/parcel/user-parcels", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "someone-else"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(list.Parcels) != 0 {
		t.Fatalf("parcels leaked across sessions: %+v", list.Parcels)
	}
}

func TestAssignCompanyUnknownIDs(t *testing.T) {
	store := repositories.NewMockStore()
	router := newTestRouter(store)
	cookie := &http.Cookie{Name: "session_id", Value: "session-test-4"}

	req := httptest.NewRequest(http.MethodPut, "/parcel/assign-company?parcel_id=42&company_id=1", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown parcel status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/parcel/assign-company?parcel_id=abc&company_id=1", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed parcel_id status = %d, want 400", rec.Code)
	}
}
