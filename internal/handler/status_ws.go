package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/strollscribe/service-walkroute/internal/application"
)

const wsWriteTimeout = 10 * time.Second

// replayCursor marks the last status event a backlog replay delivered. Live
// events the replay already covered are skipped so a subscriber never sees
// an event twice. The run ID scopes the skip: a later run restarts its
// sequence at zero and none of its events are covered.
type replayCursor struct {
	runID uuid.UUID
	last  int
}

func (c replayCursor) covers(upd application.StatusUpdate) bool {
	return upd.RunID == c.runID && upd.Seq <= c.last
}

// StatusStreamHandler pushes status events over a websocket so the UI can
// follow the running log the way the original message panel does.
type StatusStreamHandler struct {
	service  *application.WalkService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStatusStreamHandler creates a new StatusStreamHandler.
func NewStatusStreamHandler(service *application.WalkService, logger *zap.Logger) *StatusStreamHandler {
	return &StatusStreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// RegisterRoutes registers the websocket endpoint.
func (h *StatusStreamHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws/status", h.Stream)
}

// Stream handles GET /ws/status: replays the current run's log, then pushes
// each new status event as it is appended.
func (h *StatusStreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	events, cancel := h.service.Subscribe()
	defer cancel()

	// Replay the backlog first so the subscriber starts from a complete log.
	// Events appended between subscribing and snapshotting land in both
	// sources, so the cursor remembers how far the replay got.
	cursor := replayCursor{last: -1}
	if snap, ok := h.service.Current(); ok {
		cursor.runID = snap.ID
		for _, evt := range snap.Events {
			if err := h.write(conn, application.StatusUpdate{RunID: snap.ID, StatusEvent: evt}); err != nil {
				return
			}
			cursor.last = evt.Seq
		}
	}

	// Reader goroutine only to observe the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case upd, ok := <-events:
			if !ok {
				return
			}
			if cursor.covers(upd) {
				continue
			}
			if err := h.write(conn, upd); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *StatusStreamHandler) write(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
