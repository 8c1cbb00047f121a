package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"confluence-backtest-lab/internal/lookup"
)

// DefaultFearGreedEndpoint is the public alternative.me index endpoint.
const DefaultFearGreedEndpoint = "https://api.alternative.me/fng/"

// FearGreedProvider fetches the crypto Fear & Greed index and maps it
// onto [-1, 1] contrarian: extreme fear (0) scores +1, extreme greed
// (100) scores -1. Values are forward-filled onto the requested index.
type FearGreedProvider struct {
	endpoint string
	client   *http.Client
}

// FearGreedOption configures FearGreedProvider.
type FearGreedOption func(*FearGreedProvider)

// WithEndpoint overrides the index endpoint (used by tests).
func WithEndpoint(endpoint string) FearGreedOption {
	return func(p *FearGreedProvider) {
		p.endpoint = endpoint
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) FearGreedOption {
	return func(p *FearGreedProvider) {
		p.client = client
	}
}

// NewFearGreedProvider creates a provider with default configuration.
func NewFearGreedProvider(opts ...FearGreedOption) *FearGreedProvider {
	p := &FearGreedProvider{
		endpoint: DefaultFearGreedEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *FearGreedProvider) Name() string { return "fear_greed" }

// fngResponse is the alternative.me payload shape.
type fngResponse struct {
	Data []struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

// Series fetches the full index history and forward-fills it onto times.
// Timestamps before the first observation stay at 0 (neutral).
func (p *FearGreedProvider) Series(ctx context.Context, times []int64) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?limit=0", nil)
	if err != nil {
		return nil, fmt.Errorf("build fear/greed request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fear/greed index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fear/greed endpoint returned status %d", resp.StatusCode)
	}

	var payload fngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fear/greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear/greed response contained no data")
	}

	obsTimes := make([]int64, 0, len(payload.Data))
	obsVals := make([]float64, 0, len(payload.Data))
	for _, row := range payload.Data {
		ts, err := strconv.ParseInt(row.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(row.Value, 64)
		if err != nil {
			continue
		}
		obsTimes = append(obsTimes, ts*1000)
		obsVals = append(obsVals, NormalizeFearGreed(v))
	}

	sort.Sort(&timeValueSlice{times: obsTimes, vals: obsVals})

	out := make([]float64, len(times))
	for i, t := range times {
		v := lookup.ValueAt(t, obsTimes, obsVals)
		if v != v { // NaN before first observation: neutral
			v = 0
		}
		out[i] = v
	}
	return out, nil
}

// NormalizeFearGreed maps an index value in [0, 100] onto [-1, 1]
// contrarian: 0 (extreme fear) => +1, 50 => 0, 100 (extreme greed) => -1.
func NormalizeFearGreed(v float64) float64 {
	return clip((100-v)/50 - 1)
}

// timeValueSlice sorts parallel time/value slices by time.
type timeValueSlice struct {
	times []int64
	vals  []float64
}

func (s *timeValueSlice) Len() int           { return len(s.times) }
func (s *timeValueSlice) Less(i, j int) bool { return s.times[i] < s.times[j] }
func (s *timeValueSlice) Swap(i, j int) {
	s.times[i], s.times[j] = s.times[j], s.times[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}

// Ensure FearGreedProvider implements Provider
var _ Provider = (*FearGreedProvider)(nil)
