package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pressmarket/internal/engine"
	"pressmarket/internal/models"
)

type clickStore interface {
	InsertEmailClickEvent(ctx context.Context, item *models.EmailClickEvent) error
}

// WebhookHandler ingests email provider event callbacks. Only click events
// carrying the engine tag feed the pricing engine; everything else is
// acknowledged with 200 so the provider does not retry.
type WebhookHandler struct {
	Repo      clickStore
	Engine    *engine.Engine
	Logger    *zap.Logger
	EngineTag string
}

func (h *WebhookHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/webhooks/email-events", h.emailEvents)
}

type emailEvent struct {
	Event      string         `json:"event"`
	MessageID  string         `json:"sg_message_id"`
	EventID    string         `json:"sg_event_id"`
	Timestamp  int64          `json:"timestamp"`
	Categories []string       `json:"category"`
	Custom     map[string]any `json:"unique_args"`

	// Flattened custom args, providers differ on nesting.
	OpportunityID any    `json:"opportunity_id"`
	Tag           string `json:"tag"`
}

// @Summary Email provider event callback
// @Tags webhooks
// @Success 200 {object} map[string]any
// @Router /api/v1/webhooks/email-events [post]
func (h *WebhookHandler) emailEvents(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	var events []emailEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		// Some providers post a single object instead of a batch.
		var single emailEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			Error(c, http.StatusBadRequest, "invalid payload", nil)
			return
		}
		events = []emailEvent{single}
	}

	ingested := 0
	triggered := 0
	for _, ev := range events {
		if !strings.EqualFold(ev.Event, "click") {
			continue
		}
		if !h.tagged(ev) {
			continue
		}
		oppID := opportunityIDOf(ev)
		if oppID == 0 {
			if h.Logger != nil {
				h.Logger.Warn("click event missing opportunity_id", zap.String("event_id", ev.EventID))
			}
			continue
		}
		clickedAt := time.Now().UTC()
		if ev.Timestamp > 0 {
			clickedAt = time.Unix(ev.Timestamp, 0).UTC()
		}
		err := h.Repo.InsertEmailClickEvent(c.Request.Context(), &models.EmailClickEvent{
			OpportunityID:   oppID,
			ProviderEventID: ev.EventID,
			ClickedAt:       clickedAt,
		})
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("click event insert failed", zap.Uint64("opportunity_id", oppID), zap.Error(err))
			}
			continue
		}
		ingested++
		if h.Engine != nil {
			if ran, err := h.Engine.TriggerRecompute(c.Request.Context(), oppID); err != nil {
				if h.Logger != nil {
					h.Logger.Warn("event recompute failed", zap.Uint64("opportunity_id", oppID), zap.Error(err))
				}
			} else if ran {
				triggered++
			}
		}
	}
	Ok(c, gin.H{"received": len(events), "ingested": ingested, "recomputed": triggered}, nil)
}

func (h *WebhookHandler) tagged(ev emailEvent) bool {
	tag := h.EngineTag
	if tag == "" {
		tag = "pricing-engine"
	}
	if strings.EqualFold(ev.Tag, tag) {
		return true
	}
	for _, cat := range ev.Categories {
		if strings.EqualFold(cat, tag) {
			return true
		}
	}
	if raw, ok := ev.Custom["tag"]; ok {
		if s, ok := raw.(string); ok && strings.EqualFold(s, tag) {
			return true
		}
	}
	return false
}

func opportunityIDOf(ev emailEvent) uint64 {
	if id := anyToUint64(ev.OpportunityID); id != 0 {
		return id
	}
	if raw, ok := ev.Custom["opportunity_id"]; ok {
		return anyToUint64(raw)
	}
	return 0
}

func anyToUint64(v any) uint64 {
	switch val := v.(type) {
	case float64:
		if val > 0 {
			return uint64(val)
		}
	case string:
		out := uint64(0)
		for i := 0; i < len(val); i++ {
			ch := val[i]
			if ch < '0' || ch > '9' {
				return 0
			}
			out = out*10 + uint64(ch-'0')
		}
		return out
	}
	return 0
}
