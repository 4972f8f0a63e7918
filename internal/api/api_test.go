package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/market"
	"LevelSentinel/internal/model"
	"LevelSentinel/internal/refresh"
)

// stubSource serves canned series per interval without any I/O.
type stubSource struct {
	bars     map[string][]model.Bar
	price    float64
	err      error
	priceErr error
}

func (s *stubSource) Fetch(_, interval string, _ bool) (model.BarSeries, error) {
	if s.err != nil {
		return model.BarSeries{}, s.err
	}
	bars, ok := s.bars[interval]
	if !ok {
		return model.BarSeries{}, fmt.Errorf("%w: no %s series", collector.ErrDataUnavailable, interval)
	}
	return model.BarSeries{Symbol: "NQ", Interval: interval, Bars: bars, FetchedAt: time.Now()}, nil
}

func (s *stubSource) CurrentPrice(string) (float64, error) {
	if s.priceErr != nil {
		return 0, s.priceErr
	}
	return s.price, nil
}

// testNow is a Wednesday 10:20 ET, mid NY morning.
var testNow = time.Date(2025, time.March, 12, 10, 20, 0, 0, market.Eastern)

func makeBars(start time.Time, count int, step time.Duration, base float64) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := base + float64(i)
		bars[i] = model.Bar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p,
			High:   p + 2,
			Low:    p - 2,
			Close:  p + 1,
			Volume: 100,
		}
	}
	return bars
}

func testSource() *stubSource {
	dayStart := time.Date(2025, time.March, 12, 0, 0, 0, 0, market.Eastern)
	return &stubSource{
		price: 21050,
		bars: map[string][]model.Bar{
			"1m":  makeBars(testNow.Add(-2*time.Hour), 120, time.Minute, 21000),
			"5m":  makeBars(dayStart, 125, 5*time.Minute, 21000),
			"1h":  makeBars(dayStart.AddDate(0, 0, -7), 170, time.Hour, 20800),
			"1d":  makeBars(dayStart.AddDate(0, 0, -30), 30, 24*time.Hour, 20500),
			"1wk": makeBars(dayStart.AddDate(0, 0, -70), 10, 7*24*time.Hour, 20000),
		},
	}
}

func serve(t *testing.T, src *stubSource, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	h := NewHandler(src, refresh.NewTracker(nil), func() time.Time { return testNow })
	router := h.SetupRoutes([]string{"*"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return w, body
}

func TestHealthCheck(t *testing.T) {
	w, body := serve(t, testSource(), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["status"] != "OK" {
		t.Errorf("status field = %v, want OK", body["status"])
	}
	if _, ok := body["refresh"]; !ok {
		t.Error("health response must embed the refresh countdown")
	}
}

func TestMarketStatus_OpenWednesdayMorning(t *testing.T) {
	w, body := serve(t, testSource(), "/api/market-status/NQ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["is_open"] != true {
		t.Errorf("is_open = %v, want true on Wednesday 10:20 ET", body["is_open"])
	}
	if body["state"] != "OPEN" {
		t.Errorf("state = %v, want OPEN", body["state"])
	}
}

func TestMarketStatus_InvalidTicker(t *testing.T) {
	w, body := serve(t, testSource(), "/api/market-status/bad!ticker")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body["success"] != false {
		t.Error("error responses must carry success=false")
	}
}

func TestCurrentPrice(t *testing.T) {
	w, body := serve(t, testSource(), "/api/current-price/NQ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["price"].(float64) != 21050 {
		t.Errorf("price = %v, want 21050", body["price"])
	}
	if _, ok := body["change_1h"]; !ok {
		t.Error("expected change_1h with 120 minute bars available")
	}
}

func TestCurrentPrice_Unavailable(t *testing.T) {
	src := testSource()
	src.priceErr = fmt.Errorf("%w: provider down", collector.ErrDataUnavailable)
	src.err = src.priceErr

	w, body := serve(t, src, "/api/current-price/NQ")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if body["success"] != false {
		t.Error("expected success=false")
	}
}

func TestReferenceLevels_AllSixteen(t *testing.T) {
	w, body := serve(t, testSource(), "/api/reference-levels/NQ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	lv, ok := body["levels"].([]interface{})
	if !ok {
		t.Fatalf("levels missing or wrong shape: %T", body["levels"])
	}
	if len(lv) != 16 {
		t.Errorf("got %d levels, want 16", len(lv))
	}
	if _, ok := body["closest"]; !ok {
		t.Error("expected closest level with a live price")
	}
}

func TestSessionRanges(t *testing.T) {
	w, body := serve(t, testSource(), "/api/session-ranges/NQ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	ranges, ok := body["ranges"].(map[string]interface{})
	if !ok {
		t.Fatalf("ranges missing: %T", body["ranges"])
	}
	for _, key := range []string{"asian", "london", "ny_am", "ny_pm"} {
		if _, ok := ranges[key]; !ok {
			t.Errorf("missing session %s", key)
		}
	}
}

func TestCurrentSession_NYAMActive(t *testing.T) {
	w, body := serve(t, testSource(), "/api/session-ranges/NQ/current")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	active, ok := body["active"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected an active session at 10:20 ET, got %v", body["active"])
	}
	session := active["session"].(map[string]interface{})
	if session["key"] != "ny_am" {
		t.Errorf("active session = %v, want ny_am", session["key"])
	}
}

func TestFibonacciPivots(t *testing.T) {
	w, body := serve(t, testSource(), "/api/fibonacci-pivots/NQ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	daily, ok := body["daily"].(map[string]interface{})
	if !ok {
		t.Fatalf("daily pivots missing: %T", body["daily"])
	}
	// Last daily bar: open 20529, high 20531, low 20527, close 20530.
	wantPP := (20531.0 + 20527.0 + 20530.0) / 3
	if got := daily["pp"].(float64); got != wantPP {
		t.Errorf("daily PP = %v, want %v", got, wantPP)
	}
	if _, ok := body["closest"]; !ok {
		t.Error("expected closest pivot with a live price")
	}
}

func TestHourlyBlocks_CurrentBlockAt1020(t *testing.T) {
	w, body := serve(t, testSource(), "/api/hourly-blocks/NQ/current-block")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	block := body["block"].(map[string]interface{})
	// 20 minutes into the hour: blocks 1-2 complete, block 3 current.
	if got := block["num"].(float64); got != 3 {
		t.Errorf("current block = %v, want 3", got)
	}
}

func TestIndex_ListsEndpoints(t *testing.T) {
	w, body := serve(t, testSource(), "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	eps, ok := body["endpoints"].([]interface{})
	if !ok || len(eps) == 0 {
		t.Fatal("endpoint index missing")
	}
}
