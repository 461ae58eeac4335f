package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcel-delivery-service/internal/ports"
)

func TestFetchUSDRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Valute":{"USD":{"Value":92.35},"EUR":{"Value":101.1}}}`))
	}))
	defer srv.Close()

	src, err := NewCBRRateSource(srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rate, err := src.FetchUSDRate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 92.35 {
		t.Fatalf("rate = %v, want 92.35", rate)
	}
}

func TestFetchUSDRateParseFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"Valute":`},
		{"missing field", `{"Valute":{"EUR":{"Value":101.1}}}`},
		{"non-positive value", `{"Valute":{"USD":{"Value":0}}}`},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tc.body))
		}))

		src, err := NewCBRRateSource(srv.URL, 2*time.Second)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}

		_, err = src.FetchUSDRate(context.Background())
		srv.Close()

		var fe *ports.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FetchError, got %v", tc.name, err)
		}
		if fe.Kind != ports.FetchParse {
			t.Errorf("%s: kind = %s, want parse", tc.name, fe.Kind)
		}
	}
}

func TestFetchUSDRateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src, err := NewCBRRateSource(srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = src.FetchUSDRate(context.Background())

	var fe *ports.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != ports.FetchNetwork {
		t.Errorf("kind = %s, want network", fe.Kind)
	}
}

func TestFetchUSDRateTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	src, err := NewCBRRateSource(srv.URL, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = src.FetchUSDRate(context.Background())

	var fe *ports.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Kind != ports.FetchTimeout {
		t.Errorf("kind = %s, want timeout", fe.Kind)
	}
}
