package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"zone-safety-service/internal/http/middleware"
	"zone-safety-service/internal/model"
	"zone-safety-service/internal/service"
)

type CapacityOperations interface {
	RecordOccupancy(ctx context.Context, principal model.Principal, input service.RecordOccupancyInput) (*service.OccupancyResult, error)
	GetCapacitySnapshot(ctx context.Context, principal model.Principal, zoneID string, opts service.SnapshotOptions) (*service.CapacitySnapshot, error)
}

type ViolationOperations interface {
	ReportViolation(ctx context.Context, principal model.Principal, report service.ViolationReport) (*service.ViolationResult, error)
	ResolveViolation(ctx context.Context, principal model.Principal, id, resolvedBy string, notes *string) (*model.Violation, error)
	ListViolations(ctx context.Context, principal model.Principal, zoneID string, filter service.ViolationFilter) (*service.ViolationList, error)
}

type EvacuationOperations interface {
	AssessEvacuationReadiness(ctx context.Context, principal model.Principal, zoneID string) (*service.ReadinessReport, error)
}

type Handler struct {
	capacityService   CapacityOperations
	violationService  ViolationOperations
	evacuationService EvacuationOperations
	log               zerolog.Logger
}

func NewHandler(
	capacityService CapacityOperations,
	violationService ViolationOperations,
	evacuationService EvacuationOperations,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		capacityService:   capacityService,
		violationService:  violationService,
		evacuationService: evacuationService,
		log:               log,
	}
}

func (h *Handler) Register(r *gin.Engine, middlewares ...gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(middlewares...)

	zones := protected.Group("/zones/:id")
	{
		zones.POST("/occupancy", h.recordOccupancy)
		zones.GET("/capacity", h.getCapacity)
		zones.POST("/violations", h.reportViolation)
		zones.GET("/violations", h.listViolations)
		zones.GET("/evacuation/readiness", h.getEvacuationReadiness)
	}

	protected.PUT("/violations/:id/resolve", h.resolveViolation)
}

func (h *Handler) recordOccupancy(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	zoneID := strings.TrimSpace(c.Param("id"))
	if zoneID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return
	}

	var req struct {
		OccupancyCount *int    `json:"occupancy_count" binding:"required"`
		EventType      string  `json:"event_type"`
		ChildID        *string `json:"child_id"`
		Reason         string  `json:"reason"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.capacityService.RecordOccupancy(c.Request.Context(), principal, service.RecordOccupancyInput{
		ZoneID:         zoneID,
		OccupancyCount: *req.OccupancyCount,
		EventType:      model.OccupancyEventType(strings.ToUpper(strings.TrimSpace(req.EventType))),
		ChildID:        req.ChildID,
		EntryMethod:    model.EntryMethodManual,
		Reason:         req.Reason,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) getCapacity(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	zoneID := strings.TrimSpace(c.Param("id"))
	if zoneID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return
	}

	opts := service.SnapshotOptions{}
	if raw := strings.TrimSpace(c.Query("include_history")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid include_history"))
			return
		}
		opts.IncludeHistory = include
	}
	days, err := queryInt(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid days"))
		return
	}
	opts.DaysBack = days

	snapshot, err := h.capacityService.GetCapacitySnapshot(c.Request.Context(), principal, zoneID, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(snapshot))
}

func (h *Handler) reportViolation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	zoneID := strings.TrimSpace(c.Param("id"))
	if zoneID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return
	}

	var req struct {
		ViolationType   string   `json:"violation_type"`
		Severity        string   `json:"severity"`
		Description     string   `json:"description"`
		ViolatorID      *string  `json:"violator_id"`
		ViolatorType    string   `json:"violator_type"`
		RuleViolated    string   `json:"rule_violated"`
		DetectionMethod string   `json:"detection_method"`
		Confidence      *float64 `json:"confidence"`
		AutoResolve     bool     `json:"auto_resolve"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.violationService.ReportViolation(c.Request.Context(), principal, service.ViolationReport{
		ZoneID:          zoneID,
		ViolationType:   req.ViolationType,
		Severity:        model.ViolationSeverity(strings.ToUpper(req.Severity)),
		Description:     req.Description,
		ViolatorID:      req.ViolatorID,
		ViolatorType:    model.ViolatorType(strings.ToUpper(req.ViolatorType)),
		RuleViolated:    req.RuleViolated,
		DetectionMethod: model.DetectionMethod(strings.ToUpper(req.DetectionMethod)),
		Confidence:      req.Confidence,
		AutoResolve:     req.AutoResolve,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) listViolations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	zoneID := strings.TrimSpace(c.Param("id"))
	if zoneID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return
	}

	filter := service.ViolationFilter{
		Status:        strings.TrimSpace(c.Query("status")),
		Severity:      strings.TrimSpace(c.Query("severity")),
		ViolationType: strings.TrimSpace(c.Query("violation_type")),
	}

	var err error
	if filter.DaysBack, err = queryInt(c, "days"); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid days"))
		return
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid page"))
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid limit"))
		return
	}

	list, err := h.violationService.ListViolations(c.Request.Context(), principal, zoneID, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(list))
}

func (h *Handler) resolveViolation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid violation id"))
		return
	}

	var req struct {
		ResolvedBy      string  `json:"resolved_by"`
		ResolutionNotes *string `json:"resolution_notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	violation, err := h.violationService.ResolveViolation(c.Request.Context(), principal, id, req.ResolvedBy, req.ResolutionNotes)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(violation))
}

func (h *Handler) getEvacuationReadiness(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	zoneID := strings.TrimSpace(c.Param("id"))
	if zoneID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid zone id"))
		return
	}

	report, err := h.evacuationService.AssessEvacuationReadiness(c.Request.Context(), principal, zoneID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrTimeout):
		h.log.Warn().Err(err).Msg("dependency timeout")
		c.JSON(http.StatusGatewayTimeout, errorResponse("upstream timeout"))
	case errors.Is(err, service.ErrDependencyFailure):
		h.log.Error().Err(err).Msg("dependency failure")
		c.JSON(http.StatusServiceUnavailable, errorResponse("service temporarily unavailable"))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
