package main

import (
	"log/slog"
	"net/http"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// wsFrame is a client-to-server websocket message.
type wsFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id,omitempty"`
}

// wsBridge exposes the connection hub to browsers, which cannot open gRPC
// server streams. Server-to-client frames are v1.Event values.
type wsBridge struct {
	srv      *Server
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func newWSBridge(srv *Server, logger *slog.Logger) *wsBridge {
	return &wsBridge{
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// handle authenticates with the Authorization header or, since browsers
// cannot set headers on a websocket, a token query parameter.
func (b *wsBridge) handle(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}

	claims, err := b.srv.auth.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}
	userID, err := claims.ObjectID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	exists, err := b.srv.users.UserExists(c.Request.Context(), userID)
	if err != nil {
		b.logger.Error("websocket user lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to verify user"})
		return
	}
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not found"})
		return
	}

	if b.srv.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "real-time events are disabled"})
		return
	}

	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return // Upgrade already wrote the error response
	}
	defer conn.Close()

	sender := &lockedSender{send: func(ev *v1.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}}
	connID := b.srv.hub.Register(userID.Hex(), sender)
	defer b.srv.hub.Unregister(userID.Hex(), connID)

	b.logger.Info("websocket connected", "user_id", userID.Hex(), "conn_id", connID)

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// WriteControl may run concurrently with WriteJSON
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Debug("websocket read failed", "user_id", userID.Hex(), "error", err)
			}
			break
		}
		b.dispatch(c, userID, connID, f)
	}

	b.logger.Info("websocket disconnected", "user_id", userID.Hex(), "conn_id", connID)
}

// dispatch relays a client frame to the user's other sessions.
func (b *wsBridge) dispatch(c *gin.Context, userID bson.ObjectID, connID int64, f wsFrame) {
	switch f.Type {
	case v1.EventTypingStart:
		b.srv.publish(userID, connID, typingEvent(true))
	case v1.EventTypingStop:
		b.srv.publish(userID, connID, typingEvent(false))
	case v1.EventMessageRead:
		if err := b.srv.markRead(c.Request.Context(), userID, f.MessageID, connID); err != nil {
			b.logger.Warn("websocket mark read failed", "user_id", userID.Hex(), "message_id", f.MessageID, "error", err)
		}
	default:
		b.logger.Debug("unknown websocket frame", "type", f.Type)
	}
}
