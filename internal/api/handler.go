package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"LevelSentinel/internal/blocks"
	"LevelSentinel/internal/collector"
	"LevelSentinel/internal/levels"
	"LevelSentinel/internal/market"
	"LevelSentinel/internal/model"
	"LevelSentinel/internal/pivots"
	"LevelSentinel/internal/sessions"

	"github.com/gin-gonic/gin"
)

// Index handles GET / with an endpoint index.
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"service": ServiceName,
		"version": ServiceVersion,
		"endpoints": []string{
			"/health",
			"/api/market-status/:ticker",
			"/api/market-status/:ticker/is-open",
			"/api/market-status/:ticker/next-event",
			"/api/current-price/:ticker",
			"/api/reference-levels/:ticker",
			"/api/reference-levels/:ticker/closest",
			"/api/session-ranges/:ticker",
			"/api/session-ranges/:ticker/current",
			"/api/session-ranges/:ticker/previous",
			"/api/fibonacci-pivots/:ticker",
			"/api/fibonacci-pivots/:ticker/daily",
			"/api/fibonacci-pivots/:ticker/weekly",
			"/api/hourly-blocks/:ticker",
			"/api/hourly-blocks/:ticker/current-block",
			"/api/hourly-blocks/:ticker/summary",
		},
	})
}

// HealthCheck handles GET /health. The refresh block mirrors the
// dashboard countdown so the frontend needs no extra round trip.
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"success":   true,
		"status":    "OK",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.tracker != nil {
		resp["refresh"] = h.tracker.Status()
	}
	c.JSON(http.StatusOK, resp)
}

// MarketStatus handles GET /api/market-status/:ticker.
func (h *Handler) MarketStatus(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	now := h.now()
	state := market.CurrentState(now)
	ev := market.NextEvent(now)

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"ticker":         ticker,
		"state":          state,
		"is_open":        state == market.StateOpen,
		"is_maintenance": state == market.StateMaintenance,
		"local_time":     market.ToLocal(now).Format("2006-01-02 15:04:05 MST"),
		"next_event": gin.H{
			"type":              ev.Type,
			"at":                ev.At,
			"countdown":         ev.Display(),
			"countdown_seconds": int(ev.Countdown.Seconds()),
		},
	})
}

// MarketIsOpen handles GET /api/market-status/:ticker/is-open.
func (h *Handler) MarketIsOpen(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	state := market.CurrentState(h.now())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticker":  ticker,
		"is_open": state == market.StateOpen,
		"state":   state,
	})
}

// MarketNextEvent handles GET /api/market-status/:ticker/next-event.
func (h *Handler) MarketNextEvent(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	ev := market.NextEvent(h.now())
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"ticker":            ticker,
		"type":              ev.Type,
		"at":                ev.At,
		"countdown":         ev.Display(),
		"countdown_seconds": int(ev.Countdown.Seconds()),
	})
}

// CurrentPrice handles GET /api/current-price/:ticker. The hourly
// change compares against the 1m close 60 bars back when available.
func (h *Handler) CurrentPrice(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	price, err := h.source.CurrentPrice(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"ticker":  ticker,
		"price":   price,
		"is_open": market.CurrentState(h.now()) == market.StateOpen,
	}
	if series, err := h.source.Fetch(ticker, "1m", true); err == nil && len(series.Bars) > 60 {
		ref := series.Bars[len(series.Bars)-1-60].Close
		change := price - ref
		resp["change_1h"] = change
		if ref != 0 {
			resp["change_1h_pct"] = change / ref * 100
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ReferenceLevels handles GET /api/reference-levels/:ticker.
func (h *Handler) ReferenceLevels(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	all, err := h.computeLevels(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"ticker":  ticker,
		"levels":  all,
	}
	if price, err := h.source.CurrentPrice(ticker); err == nil {
		signals, closest := levels.Signals(all, price)
		resp["current_price"] = price
		resp["signals"] = signals
		resp["closest"] = closest
	}
	c.JSON(http.StatusOK, resp)
}

// ClosestLevel handles GET /api/reference-levels/:ticker/closest.
func (h *Handler) ClosestLevel(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	all, err := h.computeLevels(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	price, err := h.source.CurrentPrice(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	_, closest := levels.Signals(all, price)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"ticker":        ticker,
		"current_price": price,
		"closest":       closest,
	})
}

// SessionRanges handles GET /api/session-ranges/:ticker.
func (h *Handler) SessionRanges(c *gin.Context) {
	h.sessionRanges(c, false)
}

// PreviousSessionRanges handles GET /api/session-ranges/:ticker/previous.
func (h *Handler) PreviousSessionRanges(c *gin.Context) {
	h.sessionRanges(c, true)
}

func (h *Handler) sessionRanges(c *gin.Context, previous bool) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	series, err := h.source.Fetch(ticker, "5m", true)
	if err != nil {
		h.fail(c, err)
		return
	}
	now := h.now()
	date := now
	if previous {
		date = now.AddDate(0, 0, -1)
	}
	ranges := sessions.ComputeDay(series.Bars, date, now, previous)

	resp := gin.H{
		"success":  true,
		"ticker":   ticker,
		"date":     market.ToLocal(date).Format("2006-01-02"),
		"previous": previous,
		"ranges":   ranges,
	}
	if price, err := h.source.CurrentPrice(ticker); err == nil {
		resp["current_price"] = price
		positions := make(map[string]sessions.PricePosition, len(ranges))
		for key, r := range ranges {
			positions[key] = r.Position(price)
		}
		resp["positions"] = positions
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentSession handles GET /api/session-ranges/:ticker/current. The
// active session is null outside every window.
func (h *Handler) CurrentSession(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	series, err := h.source.Fetch(ticker, "5m", true)
	if err != nil {
		h.fail(c, err)
		return
	}
	now := h.now()
	var active *sessions.Range
	for _, s := range sessions.All {
		r := sessions.Compute(series.Bars, s, now, now, false)
		if r.IsActive {
			active = &r
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticker":  ticker,
		"active":  active,
	})
}

// FibonacciPivots handles GET /api/fibonacci-pivots/:ticker.
func (h *Handler) FibonacciPivots(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	daily, weekly, err := h.computePivots(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"ticker":  ticker,
		"daily":   daily,
		"weekly":  weekly,
	}
	if price, err := h.source.CurrentPrice(ticker); err == nil {
		resp["current_price"] = price
		resp["closest"] = pivots.ClosestTo(price, daily, weekly)
	}
	c.JSON(http.StatusOK, resp)
}

// DailyPivots handles GET /api/fibonacci-pivots/:ticker/daily.
func (h *Handler) DailyPivots(c *gin.Context) {
	h.singlePivots(c, "daily")
}

// WeeklyPivots handles GET /api/fibonacci-pivots/:ticker/weekly.
func (h *Handler) WeeklyPivots(c *gin.Context) {
	h.singlePivots(c, "weekly")
}

func (h *Handler) singlePivots(c *gin.Context, timeframe string) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	daily, weekly, err := h.computePivots(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	set := daily
	if timeframe == "weekly" {
		set = weekly
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"ticker":    ticker,
		"timeframe": timeframe,
		"pivots":    set,
	})
}

// HourlyBlocks handles GET /api/hourly-blocks/:ticker.
func (h *Handler) HourlyBlocks(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	summary, err := h.segmentHour(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ticker":  ticker,
		"summary": summary,
	})
}

// CurrentBlock handles GET /api/hourly-blocks/:ticker/current-block.
func (h *Handler) CurrentBlock(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	summary, err := h.segmentHour(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	block := summary.Blocks[summary.CurrentBlock-1]
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"ticker":            ticker,
		"block":             block,
		"time_in_block_pct": summary.TimeInBlockPct,
	})
}

// BlockSummary handles GET /api/hourly-blocks/:ticker/summary, the
// per-block payload trimmed to counters.
func (h *Handler) BlockSummary(c *gin.Context) {
	ticker, ok := h.ticker(c)
	if !ok {
		return
	}
	summary, err := h.segmentHour(ticker)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"ticker":            ticker,
		"hour_start":        summary.HourStart,
		"hour_end":          summary.HourEnd,
		"current_block":     summary.CurrentBlock,
		"blocks_completed":  summary.BlocksCompleted,
		"progress":          summary.Progress,
		"time_in_block_pct": summary.TimeInBlockPct,
	})
}

// computeLevels pulls the three series feeding the level engine. Each
// series degrades to empty on fetch failure; only a total blackout
// surfaces as an error.
func (h *Handler) computeLevels(ticker string) ([]levels.Level, error) {
	var firstErr error
	failed := 0
	fetch := func(interval string) []model.Bar {
		series, err := h.source.Fetch(ticker, interval, true)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed++
			return nil
		}
		return series.Bars
	}

	hourly := fetch("1h")
	daily := fetch("1d")
	minute := fetch("1m")
	if failed == 3 {
		return nil, firstErr
	}
	return levels.ComputeAll(hourly, daily, minute, h.now()), nil
}

func (h *Handler) computePivots(ticker string) (daily, weekly pivots.Set, err error) {
	dailySeries, err := h.source.Fetch(ticker, "1d", true)
	if err != nil {
		return pivots.Set{}, pivots.Set{}, err
	}
	weeklySeries, err := h.source.Fetch(ticker, "1wk", true)
	if err != nil {
		return pivots.Set{}, pivots.Set{}, err
	}
	daily = pivots.FromBar(dailySeries.Bars[len(dailySeries.Bars)-1])
	weekly = pivots.FromBar(weeklySeries.Bars[len(weeklySeries.Bars)-1])
	return daily, weekly, nil
}

func (h *Handler) segmentHour(ticker string) (blocks.Summary, error) {
	series, err := h.source.Fetch(ticker, "1m", true)
	if err != nil {
		return blocks.Summary{}, err
	}
	return blocks.Segment(series.Bars, h.now()), nil
}

// ticker validates the :ticker path parameter, writing the 400 itself.
func (h *Handler) ticker(c *gin.Context) (string, bool) {
	clean, err := h.validator.ValidateTicker(c.Param("ticker"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return clean, true
}

// fail maps domain errors onto HTTP status codes and logs the request.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, collector.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, collector.ErrDataUnavailable):
		status = http.StatusServiceUnavailable
	}

	requestID := c.GetString(requestIDContextKey)
	log.Printf("[ERROR] %s %s (%s): %v", c.Request.Method, c.Request.URL.Path, requestID, err)

	c.JSON(status, gin.H{
		"success":    false,
		"error":      err.Error(),
		"request_id": requestID,
	})
}
