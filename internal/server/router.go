// Package server exposes the usage and reporting queries over HTTP JSON.
// Every endpoint is an anonymous read; there is no request body and no
// pagination.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/solvras/file-usage-overview/internal/reporting"
	"github.com/solvras/file-usage-overview/internal/usage"
	"go.uber.org/zap"
)

var (
	errMissingUsageResolver    = errors.New("usage resolver dependency required")
	errMissingReportingService = errors.New("reporting service dependency required")
)

// UsageResolver answers per-asset usage queries. The "used in" listing
// degrades to an empty result internally and never fails.
type UsageResolver interface {
	ResolveUsage(ctx context.Context, assetID int64) []usage.UsageEntry
	AssetOverview(ctx context.Context) ([]usage.AssetUsage, error)
}

// ReportingService runs the two aggregate reports.
type ReportingService interface {
	FileList(ctx context.Context) ([]reporting.FileRecord, error)
	CategoryUsageCounts(ctx context.Context) ([]reporting.CategoryUsage, error)
}

// Dependencies carries the services the router needs.
type Dependencies struct {
	Usage   UsageResolver
	Reports ReportingService
	Logger  *zap.Logger
}

// NewHTTPHandler wires the JSON routes and returns the root handler.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Usage == nil {
		return nil, errMissingUsageResolver
	}
	if deps.Reports == nil {
		return nil, errMissingReportingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		usage:   deps.Usage,
		reports: deps.Reports,
		logger:  logger,
	}

	overview := router.Group("/file-usage-overview")
	overview.GET("/asset-usage", handler.handleFileList)
	overview.GET("/asset-usage/categories", handler.handleCategoryUsage)
	overview.GET("/assets", handler.handleAssetOverview)
	overview.GET("/assets/:id/used-in", handler.handleUsedIn)

	return router, nil
}

type httpHandler struct {
	usage   UsageResolver
	reports ReportingService
	logger  *zap.Logger
}

func (h *httpHandler) handleFileList(c *gin.Context) {
	records, err := h.reports.FileList(c.Request.Context())
	if err != nil {
		h.logger.Error("file listing report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *httpHandler) handleCategoryUsage(c *gin.Context) {
	rows, err := h.reports.CategoryUsageCounts(c.Request.Context())
	if err != nil {
		h.logger.Error("category usage report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report_failed"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *httpHandler) handleAssetOverview(c *gin.Context) {
	overview, err := h.usage.AssetOverview(c.Request.Context())
	if err != nil {
		h.logger.Error("asset overview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "overview_failed"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

// handleUsedIn always answers 200 for well-formed ids: the resolver degrades
// internal failures to an empty listing.
func (h *httpHandler) handleUsedIn(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || assetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_asset_id"})
		return
	}
	c.JSON(http.StatusOK, h.usage.ResolveUsage(c.Request.Context(), assetID))
}
