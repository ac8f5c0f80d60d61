package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"community-chat/internal/models"
	"community-chat/internal/observability"
)

// Handler upgrades websocket connections and runs the per-connection
// read loop.
type Handler struct {
	hub      *Hub
	registry *Registry
	session  *Session
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, registry *Registry, session *Session) *Handler {
	return &Handler{hub: hub, registry: registry, session: session}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client. Identity is
// drawn from the handshake query parameters and trusted as given; no
// re-authentication happens at this layer.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("community-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user identity"})
		return
	}
	companyID, _ := strconv.Atoi(c.Query("companyId"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		UserName:    c.Query("userName"),
		UserEmail:   c.Query("userEmail"),
		UserRole:    c.Query("userRole"),
		CompanyID:   companyID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	h.registry.Register(info)
	h.hub.AddClient(info.ConnID, conn)

	observability.IncWSActive("session")
	observability.IncWSEvent("session", "ws_connect")
	h.publishLifecycleEvent(ctx, info, "ws_connect", "")

	go h.readLoop(ctx, conn, info)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.session.HandleDisconnect(info.ConnID)
		observability.DecWSActive("session")
		observability.IncWSEvent("session", "ws_disconnect")
		h.publishLifecycleEvent(ctx, info, "ws_disconnect", closeReason)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("session", "ws_error")
				h.publishLifecycleEvent(ctx, info, "ws_error", closeReason)
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		h.session.HandleEvent(ctx, info.ConnID, event)
	}
}

func (h *Handler) publishLifecycleEvent(ctx context.Context, info ConnInfo, name, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "session",
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
