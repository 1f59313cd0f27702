package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pressmarket/internal/engine"
	"pressmarket/internal/pricing"
	"pressmarket/internal/repository"
	"pressmarket/internal/service"
)

type OpportunityHandler struct {
	Opportunities *service.OpportunityService
	Trend         *service.TrendService
	Engine        *engine.Engine
}

func (h *OpportunityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/opportunities")
	group.GET("", h.listOpportunities)
	group.POST("", h.createOpportunity)
	group.GET("/:id", h.getOpportunity)
	group.POST("/:id/close", h.closeOpportunity)
	group.GET("/:id/price", h.getPrice)
	group.POST("/:id/price", h.setPrice)
	group.GET("/:id/price-trend", h.getPriceTrend)
}

// @Summary List opportunities
// @Tags opportunities
// @Param status query string false "open or closed"
// @Param tier query int false "1, 2 or 3"
// @Param publication_id query int false "filter by publication"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities [get]
func (h *OpportunityHandler) listOpportunities(c *gin.Context) {
	if h.Opportunities == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	status := strings.TrimSpace(c.Query("status"))
	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}
	var tierPtr *int
	if tier := intQuery(c, "tier", 0); tier != 0 {
		if !pricing.IsValidTier(tier) {
			Error(c, http.StatusBadRequest, "tier must be 1, 2 or 3", nil)
			return
		}
		tierPtr = &tier
	}
	var pubPtr *uint64
	if pub := intQuery(c, "publication_id", 0); pub > 0 {
		v := uint64(pub)
		pubPtr = &v
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"created_at":    "created_at",
		"deadline":      "deadline",
		"current_price": "current_price",
		"tier":          "tier",
	})
	if orderBy == "" {
		orderBy = "created_at"
	}
	asc := strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc")

	result, err := h.Opportunities.List(c.Request.Context(), repository.ListOpportunitiesParams{
		Limit:         limit,
		Offset:        offset,
		Status:        statusPtr,
		Tier:          tierPtr,
		PublicationID: pubPtr,
		OrderBy:       orderBy,
		Asc:           boolPtr(asc),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result.Items, paginationMeta(limit, offset, result.Total))
}

type createOpportunityRequest struct {
	Title         string    `json:"title" binding:"required"`
	Tier          int       `json:"tier" binding:"required"`
	PublicationID uint64    `json:"publication_id" binding:"required"`
	Deadline      time.Time `json:"deadline" binding:"required"`
}

// @Summary Create an opportunity priced at its tier base
// @Tags opportunities
// @Param body body createOpportunityRequest true "opportunity"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities [post]
func (h *OpportunityHandler) createOpportunity(c *gin.Context) {
	if h.Opportunities == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req createOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Opportunities.Create(c.Request.Context(), service.CreateOpportunityParams{
		Title:         req.Title,
		Tier:          req.Tier,
		PublicationID: req.PublicationID,
		Deadline:      req.Deadline,
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Get one opportunity
// @Tags opportunities
// @Param id path int true "opportunity id"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id} [get]
func (h *OpportunityHandler) getOpportunity(c *gin.Context) {
	if h.Opportunities == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Opportunities.Get(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Close an opportunity and freeze its price
// @Tags opportunities
// @Param id path int true "opportunity id"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/close [post]
func (h *OpportunityHandler) closeOpportunity(c *gin.Context) {
	if h.Opportunities == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Opportunities.Close(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Current price with its latest breakdown
// @Tags pricing
// @Param id path int true "opportunity id"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/price [get]
func (h *OpportunityHandler) getPrice(c *gin.Context) {
	if h.Opportunities == nil || h.Trend == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Opportunities.Get(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "opportunity not found", nil)
		return
	}
	latest, err := h.Trend.Latest(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	payload := gin.H{
		"opportunity_id": item.ID,
		"status":         item.Status,
		"current_price":  item.CurrentPrice.StringFixed(2),
	}
	if item.LastPrice != nil {
		payload["last_price"] = item.LastPrice.StringFixed(2)
	}
	if latest != nil {
		payload["breakdown"] = latest.Breakdown
		payload["source"] = latest.Source
		payload["as_of"] = latest.CreatedAt
	}
	Ok(c, payload, nil)
}

type setPriceRequest struct {
	Price float64 `json:"price" binding:"required"`
	// Payload is an opaque signal snapshot from the caller, stored on the
	// audit row as-is.
	Payload json.RawMessage `json:"payload"`
}

// @Summary Manually push a price
// @Tags pricing
// @Param id path int true "opportunity id"
// @Param body body setPriceRequest true "requested price"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/price [post]
func (h *OpportunityHandler) setPrice(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "engine unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.Price <= 0 {
		Error(c, http.StatusBadRequest, "price must be positive", nil)
		return
	}
	snapshot, result, err := h.Engine.ManualSet(c.Request.Context(), id, req.Price, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			Error(c, http.StatusNotFound, "opportunity not found", nil)
		case errors.Is(err, service.ErrOpportunityClosed):
			Error(c, http.StatusConflict, "opportunity is closed", nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{
		"opportunity_id": id,
		"requested":      req.Price,
		"price":          result.Price.StringFixed(2),
		"breakdown":      snapshot.Breakdown,
	}, nil)
}

// @Summary Price trend over a trailing window
// @Tags pricing
// @Param id path int true "opportunity id"
// @Param window query string false "24h or 7d"
// @Success 200 {object} map[string]any
// @Router /api/v1/opportunities/{id}/price-trend [get]
func (h *OpportunityHandler) getPriceTrend(c *gin.Context) {
	if h.Trend == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	window, label := parseWindow(c.Query("window"))
	result, err := h.Trend.Window(c.Request.Context(), id, window, label)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			Error(c, http.StatusNotFound, "opportunity not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}
