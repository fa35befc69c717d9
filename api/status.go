package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor stream is same-origin in production; surfaces run behind
	// the gateway's CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GetMonitor returns the retained observability entries, newest first.
func (h *Handler) GetMonitor(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": h.monitor.Entries(),
	})
}

// MonitorStream upgrades to a WebSocket and streams status entries as they
// are recorded. One-way; inbound frames are discarded.
func (h *Handler) MonitorStream(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return err
	}

	conn := h.hub.NewConnection(ws)
	h.hub.Register(conn)

	go conn.WritePump()
	conn.ReadPump()
	return nil
}
