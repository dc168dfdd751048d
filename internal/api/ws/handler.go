package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

// Handler manages WebSocket connections
type Handler struct {
	broadcaster *session.Broadcaster
	upgrader    websocket.Upgrader
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(broadcaster *session.Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Dashboard may be served from another origin
			},
		},
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and streams snapshots until the
// client disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	conn := newConn(ws, h.metrics)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		conn.writeLoop(ctx, h.logger)
	}()

	obs := h.broadcaster.Attach(ctx, conn)
	log := h.logger.With(
		zap.String("observer_id", obs.ID().String()),
		zap.String("remote", c.ClientIP()),
	)
	log.Info("WebSocket connected")

	h.readLoop(ws, log)

	obs.Detach()
	cancel()
	<-writerDone

	log.Info("WebSocket disconnected")
}

// readLoop applies inbound commands until the connection fails
func (h *Handler) readLoop(ws *websocket.Conn, log *zap.Logger) {
	ws.SetReadLimit(maxMessageSize)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		cmd, err := session.ParseCommand(data)
		if err != nil {
			outcome := "invalid"
			if errors.Is(err, session.ErrUnknownCommand) {
				outcome = "unknown"
			}
			h.metrics.RecordCommand(outcome, "rejected")
			log.Warn("Command rejected", zap.Error(err))
			continue
		}

		h.broadcaster.Apply(cmd)
	}
}

// conn is a session sink with a one-slot mailbox
type conn struct {
	ws      *websocket.Conn
	mailbox chan types.Envelope
	metrics *monitoring.Metrics
}

func newConn(ws *websocket.Conn, metrics *monitoring.Metrics) *conn {
	return &conn{
		ws:      ws,
		mailbox: make(chan types.Envelope, 1),
		metrics: metrics,
	}
}

// Deliver queues env, replacing any snapshot not yet written
func (c *conn) Deliver(env types.Envelope) {
	for {
		select {
		case c.mailbox <- env:
			return
		default:
		}

		select {
		case <-c.mailbox:
			c.metrics.IncSnapshotDropped()
		default:
		}
	}
}

// writeLoop writes queued snapshots until ctx ends or a write fails
func (c *conn) writeLoop(ctx context.Context, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			// Server shutdown also has to unblock the read loop
			c.ws.Close()
			return
		case env := <-c.mailbox:
			data, err := sonic.Marshal(env)
			if err != nil {
				log.Error("Snapshot encode failed", zap.Error(err))
				continue
			}

			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("WebSocket write failed", zap.Error(err))
				// Unblocks the read loop
				c.ws.Close()
				return
			}
			c.metrics.IncSnapshotSent()
		}
	}
}
