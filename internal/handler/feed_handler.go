package handler

import (
	"log"
	"time"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	feedBuffer     = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxFeedMessage = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Feed godoc
// @Summary      Live sticker feed
// @Description  Upgrades to a websocket that streams game.created, game.updated and game.deleted events for public stickers, plus the session user's private ones.
// @Tags         feed
// @Success      101
// @Router       /feed [get]
func (h *Handler) Feed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("feed: upgrade: %v", err)
		return
	}
	defer conn.Close()

	public := make(hub.Client, feedBuffer)
	h.hub.Subscribe(hub.TopicPublic, public)
	defer h.hub.Unsubscribe(hub.TopicPublic, public)

	// A nil channel never delivers, so anonymous viewers only get the public feed.
	var own hub.Client
	if session, ok := auth.SessionFrom(c); ok && session.UserID != "" {
		topic := hub.UserTopic(session.UserID)
		own = make(hub.Client, feedBuffer)
		h.hub.Subscribe(topic, own)
		defer h.hub.Unsubscribe(topic, own)
	}

	// Clients never send anything meaningful; reading only serves to notice
	// disconnects and to process pongs.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxFeedMessage)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("feed: read: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var (
			msg []byte
			ok  bool
		)
		select {
		case <-done:
			return
		case msg, ok = <-public:
		case msg, ok = <-own:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		if !ok {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
