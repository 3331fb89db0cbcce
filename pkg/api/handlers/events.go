package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
)

const (
	heartbeatInterval = 30 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

// EventsHandler serves event history and live event streams
type EventsHandler struct {
	subscriber device.EventSubscriber
	history    db.EventStore
	upgrader   websocket.Upgrader
}

// NewEventsHandler creates a new events handler. history may be nil.
func NewEventsHandler(subscriber device.EventSubscriber, history db.EventStore) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		history:    history,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// History handles GET /events
// @Summary      Event history
// @Description  Returns recorded attribute changes, newest first
// @Tags         events
// @Produce      json
// @Param        kind       query     string  false  "zone or partition"
// @Param        id         query     int     false  "Device number"
// @Param        attribute  query     string  false  "Attribute name"
// @Param        since      query     string  false  "RFC 3339 timestamp"
// @Param        limit      query     int     false  "Maximum number of events (default 100)"
// @Success      200        {object}  types.ListEventsResponse
// @Failure      400        {object}  types.ErrorResponse  "Invalid filter"
// @Failure      503        {object}  types.ErrorResponse  "History not stored"
// @Router       /events [get]
func (h *EventsHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Event history is not stored",
		})
		return
	}

	filter := db.EventFilter{Attribute: c.Query("attribute")}
	if q := c.Query("kind"); q != "" {
		kind, err := device.ParseKind(q)
		if err != nil {
			writeError(c, err)
			return
		}
		filter.Kind = kind
	}
	for name, dst := range map[string]*int{"id": &filter.ID, "limit": &filter.Limit} {
		q := c.Query(name)
		if q == "" {
			continue
		}
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: name + " must be a non-negative integer",
			})
			return
		}
		*dst = n
	}
	if q := c.Query("since"); q != "" {
		since, err := time.Parse(time.RFC3339, q)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: "since must be an RFC 3339 timestamp",
			})
			return
		}
		filter.Since = since
	}

	events, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if events == nil {
		events = []*db.EventRecord{}
	}

	c.JSON(http.StatusOK, types.ListEventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// Stream handles GET /events/stream (SSE stream)
// @Summary      Subscribe to live events
// @Description  Server-Sent Events stream of attribute changes
// @Tags         events
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /events/stream [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	eventChan := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(eventChan)

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"message":   "Connected to panel event stream",
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, string(event.Kind), event)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// WebSocket handles GET /events/ws
// @Summary      Live events over WebSocket
// @Description  Upgrades to a WebSocket that receives one JSON message per attribute change
// @Tags         events
// @Success      101  {string}  string  "Switching protocols"
// @Router       /events/ws [get]
func (h *EventsHandler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	eventChan := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(eventChan)

	log.Debug().Str("client_ip", c.ClientIP()).Msg("WebSocket client connected")

	// The reader only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			log.Debug().Str("client_ip", c.ClientIP()).Msg("WebSocket client disconnected")
			return

		case event, ok := <-eventChan:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "panel stopped"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
