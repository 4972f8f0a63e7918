package collector

import (
	"time"

	"LevelSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data from a provider.
type Fetcher interface {
	FetchBars(symbol, interval string) ([]model.Bar, error)
	FetchCurrentPrice(symbol string) (float64, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price    float64
	Bars     map[string][]model.Bar // keyed by interval
	Err      error
	PriceErr error
	Calls    int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ string, interval string) ([]model.Bar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[interval]; ok {
		return bars, nil
	}
	return GenerateMockBars(m.Price, 120, time.Minute), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ string) (float64, error) {
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	return m.Price, nil
}

// GenerateMockBars builds a plausible ascending bar run around basePrice.
func GenerateMockBars(basePrice float64, count int, step time.Duration) []model.Bar {
	bars := make([]model.Bar, count)
	start := time.Now().Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.0005)
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.003,
			Low:    p * 0.997,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}
