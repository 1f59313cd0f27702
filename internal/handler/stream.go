package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"pressmarket/internal/stream"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler serves the live price feed over websocket. Each connection
// gets its own hub subscription; a connection that cannot keep up misses
// updates rather than slowing the engine down.
type StreamHandler struct {
	Hub    *stream.Hub
	Logger *zap.Logger
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/stream/prices", h.prices)
}

// @Summary Live price updates over websocket
// @Tags stream
// @Router /api/v1/stream/prices [get]
func (h *StreamHandler) prices(c *gin.Context) {
	if h.Hub == nil {
		Error(c, http.StatusInternalServerError, "stream unavailable", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("stream accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	updates, cancel := h.Hub.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	// Drain reads so pings and client close frames are processed.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutdown")
			return
		case <-readDone:
			return
		case update, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription ended")
				return
			}
			payload, err := json.Marshal(update)
			if err != nil {
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, streamWriteTimeout)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}
