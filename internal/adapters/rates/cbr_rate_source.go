package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"parcel-delivery-service/internal/platform/obs"
	"parcel-delivery-service/internal/ports"
)

// CBRRateSource fetches the daily USD exchange rate from the Central Bank
// JSON feed. It performs exactly one request per call; retry and fallback
// policy live in the rate service and the scheduler.
//
// The source is safe for concurrent use.
type CBRRateSource struct {
	session *http.Client
	url     string
}

func NewCBRRateSource(url string, timeout time.Duration) (*CBRRateSource, error) {
	if url == "" {
		return nil, errors.New("rate source: url is empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &CBRRateSource{
		session: &http.Client{Timeout: timeout},
		url:     url,
	}, nil
}

// Expected response shape: {"Valute": {"USD": {"Value": <number>}}}.
// Anything else is a parse failure.
type dailyRatesResponse struct {
	Valute struct {
		USD struct {
			Value float64 `json:"Value"`
		} `json:"USD"`
	} `json:"Valute"`
}

// FetchUSDRate performs one GET against the configured feed and extracts the
// USD rate. Failures are classified as network, timeout or parse via
// ports.FetchError.
func (s *CBRRateSource) FetchUSDRate(ctx context.Context) (_ float64, err error) {
	defer obs.Time(ctx, "rates.FetchUSDRate")(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, &ports.FetchError{Kind: ports.FetchNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.session.Do(req)
	if err != nil {
		return 0, &ports.FetchError{Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &ports.FetchError{
			Kind: ports.FetchNetwork,
			Err:  fmt.Errorf("unexpected status: %d", resp.StatusCode),
		}
	}

	var decoded dailyRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, &ports.FetchError{Kind: ports.FetchParse, Err: fmt.Errorf("decode rate response: %w", err)}
	}

	rate := decoded.Valute.USD.Value
	if rate <= 0 {
		return 0, &ports.FetchError{
			Kind: ports.FetchParse,
			Err:  fmt.Errorf("missing or non-positive USD rate: %v", rate),
		}
	}

	return rate, nil
}

// Timeouts are recovered identically to network failures; the distinct kind
// exists so operators can tell them apart in logs.
func classifyTransport(err error) ports.FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ports.FetchTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ports.FetchTimeout
	}

	return ports.FetchNetwork
}
