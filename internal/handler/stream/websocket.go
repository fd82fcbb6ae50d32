package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TextMessage is the payload of an inbound "text" message.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket pushes "state" messages after every change and accepts "text"
// submissions from the client.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	states, err := h.events.Subscribe(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "websocket").Msg("subscribe failed")
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "websocket").Msg("upgrade failed")
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	log.Debug().Str("component", "websocket").Str("remote", r.RemoteAddr).Msg("connection opened")

	_ = raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(readTimeout))
	})

	if err := conn.send("state", h.conversation.State()); err != nil {
		return
	}

	go h.writeLoop(ctx, cancel, conn, states)

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("component", "websocket").Msg("read failed")
			}
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, conn, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *wsConn, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(conn, "invalid text payload")
			return
		}
		_, accepted := h.conversation.Start(ctx, text.Text)
		if err := conn.send("result", map[string]bool{"accepted": accepted}); err != nil {
			log.Debug().Err(err).Str("component", "websocket").Msg("write result failed")
		}
	case "state":
		if err := conn.send("state", h.conversation.State()); err != nil {
			log.Debug().Err(err).Str("component", "websocket").Msg("write state failed")
		}
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *wsConn, states <-chan chat.State) {
	defer func() {
		cancel()
		// unblocks the read loop
		_ = conn.conn.Close()
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if err := conn.send("state", state); err != nil {
				log.Debug().Err(err).Str("component", "websocket").Msg("write state failed")
				return
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) sendError(conn *wsConn, message string) {
	if err := conn.send("error", map[string]string{"message": message}); err != nil {
		log.Debug().Err(err).Str("component", "websocket").Msg("write error failed")
	}
}
