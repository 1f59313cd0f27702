package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Press Market Pricing Service

Dynamic pricing for press-request opportunities. Prices recompute on a tick
from engagement signals, move on a fixed step grid inside tier bands, and
every committed price carries an audit breakdown.

## Notable Routes

- GET /healthz
- GET /readyz
- GET /swagger/index.html
- GET /api/v1/opportunities
- POST /api/v1/opportunities
- GET /api/v1/opportunities/:id
- POST /api/v1/opportunities/:id/close
- GET /api/v1/opportunities/:id/price
- POST /api/v1/opportunities/:id/price
- GET /api/v1/opportunities/:id/price-trend
- GET /api/v1/pricing/variables
- PUT /api/v1/pricing/variables/:name
- GET /api/v1/pricing/config
- PUT /api/v1/pricing/config/:key
- POST /api/v1/pricing/reload
- POST /api/v1/webhooks/email-events
- GET /api/v1/stream/prices (websocket)

## Tuning

Signal weights and engine config (step, tick interval, cooldown, boosts)
live in the database and hot-reload without a restart. PUT endpoints
validate ranges before persisting; POST /api/v1/pricing/reload forces the
cache to re-read immediately.
`)
	})
}
