package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pressmarket/internal/service"
	"pressmarket/internal/tuning"
)

type PricingHandler struct {
	Settings *service.SettingsService
}

func (h *PricingHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/pricing")
	group.GET("/variables", h.listVariables)
	group.PUT("/variables/:name", h.setVariable)
	group.GET("/config", h.listConfig)
	group.PUT("/config/:key", h.setConfig)
	group.POST("/reload", h.reload)
}

// @Summary List pricing variables
// @Tags tuning
// @Success 200 {object} map[string]any
// @Router /api/v1/pricing/variables [get]
func (h *PricingHandler) listVariables(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Settings.ListVariables(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type setVariableRequest struct {
	Weight    float64 `json:"weight"`
	Transform string  `json:"transform"`
}

// @Summary Update one pricing variable
// @Tags tuning
// @Param name path string true "variable name"
// @Param body body setVariableRequest true "weight and transform"
// @Success 200 {object} map[string]any
// @Router /api/v1/pricing/variables/{name} [put]
func (h *PricingHandler) setVariable(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req setVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Settings.SetVariable(c.Request.Context(), c.Param("name"), req.Weight, req.Transform)
	if err != nil {
		var verr *tuning.ValidationError
		if errors.As(err, &verr) {
			Error(c, http.StatusBadRequest, verr.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary List engine config
// @Tags tuning
// @Success 200 {object} map[string]any
// @Router /api/v1/pricing/config [get]
func (h *PricingHandler) listConfig(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Settings.ListConfig(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type setConfigRequest struct {
	Value float64 `json:"value"`
}

// @Summary Update one engine config key
// @Tags tuning
// @Param key path string true "config key"
// @Param body body setConfigRequest true "value"
// @Success 200 {object} map[string]any
// @Router /api/v1/pricing/config/{key} [put]
func (h *PricingHandler) setConfig(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Settings.SetConfig(c.Request.Context(), c.Param("key"), req.Value)
	if err != nil {
		var verr *tuning.ValidationError
		if errors.As(err, &verr) {
			Error(c, http.StatusBadRequest, verr.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Force a tuning snapshot reload
// @Tags tuning
// @Success 200 {object} map[string]any
// @Router /api/v1/pricing/reload [post]
func (h *PricingHandler) reload(c *gin.Context) {
	if h.Settings == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	if err := h.Settings.ForceReload(c.Request.Context()); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"reloaded": true}, nil)
}
