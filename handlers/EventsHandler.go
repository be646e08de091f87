package handlers

import (
	"io"
	"time"

	"turbineops/services"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 25 * time.Second

// StreamEvents godoc
// @Summary      Server-sent events
// @Description  Sends "ping" on connect and "plan" for every generated repair plan
// @Tags         events
// @Produce      text/event-stream
// @Success      200
// @Router       /api/events [get]
func StreamEvents(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.SSEvent("ping", "ok")
		c.Writer.Flush()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(ev.Name, ev.Data)
				return true
			case <-ticker.C:
				c.SSEvent("ping", "ok")
				return true
			}
		})
	}
}
