// Package api exposes the analytics over HTTP. Handlers are thin: they
// validate the ticker, pull series from the collector, and delegate all
// computation to the analytics packages.
//
// File layout:
//   - api.go: handler struct, dependencies, routing
//   - handler.go: HTTP request handlers
//   - middleware.go: request-ID and CORS middleware
//   - validator.go: ticker validation
package api

import (
	"strconv"
	"time"

	"LevelSentinel/internal/model"
	"LevelSentinel/internal/refresh"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "level-sentinel"
	ServiceVersion = "1.0.0"

	requestIDContextKey = "request_id"
	requestIDHeaderKey  = "X-Request-ID"
)

// DataSource is the slice of the collector the handlers need.
type DataSource interface {
	Fetch(symbol, interval string, useCache bool) (model.BarSeries, error)
	CurrentPrice(symbol string) (float64, error)
}

// Handler handles HTTP requests using the Gin framework.
type Handler struct {
	source    DataSource
	tracker   *refresh.Tracker
	validator *Validator
	now       func() time.Time
}

// NewHandler creates an API handler. The clock is injectable for tests;
// nil means time.Now.
func NewHandler(source DataSource, tracker *refresh.Tracker, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		source:    source,
		tracker:   tracker,
		validator: GetValidator(),
		now:       now,
	}
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes(allowOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(allowOrigins))

	router.GET("/", h.Index)
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/market-status/:ticker", h.MarketStatus)
		api.GET("/market-status/:ticker/is-open", h.MarketIsOpen)
		api.GET("/market-status/:ticker/next-event", h.MarketNextEvent)

		api.GET("/current-price/:ticker", h.CurrentPrice)

		api.GET("/reference-levels/:ticker", h.ReferenceLevels)
		api.GET("/reference-levels/:ticker/closest", h.ClosestLevel)

		api.GET("/session-ranges/:ticker", h.SessionRanges)
		api.GET("/session-ranges/:ticker/current", h.CurrentSession)
		api.GET("/session-ranges/:ticker/previous", h.PreviousSessionRanges)

		api.GET("/fibonacci-pivots/:ticker", h.FibonacciPivots)
		api.GET("/fibonacci-pivots/:ticker/daily", h.DailyPivots)
		api.GET("/fibonacci-pivots/:ticker/weekly", h.WeeklyPivots)

		api.GET("/hourly-blocks/:ticker", h.HourlyBlocks)
		api.GET("/hourly-blocks/:ticker/current-block", h.CurrentBlock)
		api.GET("/hourly-blocks/:ticker/summary", h.BlockSummary)
	}

	return router
}

// StartServer starts the HTTP server on the given port.
func (h *Handler) StartServer(port int, allowOrigins []string) error {
	return h.SetupRoutes(allowOrigins).Run(":" + strconv.Itoa(port))
}
