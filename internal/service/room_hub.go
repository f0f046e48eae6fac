package service

import (
	"context"
	"encoding/json"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/monitoring"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

const (
	WSRoomSnapshot = "ROOM_SNAPSHOT"
	WSSendMessage  = "SEND_MESSAGE"
	WSError        = "ERROR"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage 本地 UI websocket 帧
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// HubClient 一个订阅聊天室的 UI 连接
type HubClient struct {
	Hub     *RoomHub
	Conn    *websocket.Conn
	Send    chan []byte
	Room    string
	Limiter *rate.Limiter
}

func (c *HubClient) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Room websocket unexpected close", zap.Error(err), zap.String("room", c.Room))
			}
			break
		}

		// 每秒最多 5 条，允许突发 10 条
		if !c.Limiter.Allow() {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if c.Hub.Handler != nil {
			c.Hub.Handler(c, msg)
		}
	}
}

func (c *HubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Reply 只发给当前连接
func (c *HubClient) Reply(msgType string, data interface{}) {
	c.Hub.enqueue(roomPush{room: c.Room, target: c}, msgType, data)
}

type roomPush struct {
	room    string
	target  *HubClient
	payload []byte
}

// RoomHub 把聊天室快照推送给订阅该房间的 UI 连接
type RoomHub struct {
	clients    map[string]map[*HubClient]bool
	register   chan *HubClient
	unregister chan *HubClient
	push       chan roomPush
	done       chan struct{}
	stopOnce   sync.Once

	// Handler 处理 UI 上行帧
	Handler func(c *HubClient, msg WSMessage)
}

func NewRoomHub() *RoomHub {
	return &RoomHub{
		clients:    make(map[string]map[*HubClient]bool),
		register:   make(chan *HubClient),
		unregister: make(chan *HubClient),
		push:       make(chan roomPush, 256),
		done:       make(chan struct{}),
	}
}

func (h *RoomHub) Run(ctx context.Context) {
	defer func() {
		h.Stop()
		h.closeAll()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case client := <-h.register:
			if h.clients[client.Room] == nil {
				h.clients[client.Room] = make(map[*HubClient]bool)
			}
			h.clients[client.Room][client] = true
		case client := <-h.unregister:
			if set, ok := h.clients[client.Room]; ok && set[client] {
				delete(set, client)
				close(client.Send)
				if len(set) == 0 {
					delete(h.clients, client.Room)
				}
			}
		case p := <-h.push:
			for client := range h.clients[p.room] {
				if p.target != nil && p.target != client {
					continue
				}
				select {
				case client.Send <- p.payload:
				default:
					// 写不动的连接直接断开
					delete(h.clients[p.room], client)
					close(client.Send)
				}
			}
		}
	}
}

// Stop 关闭所有 UI 连接
func (h *RoomHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *RoomHub) closeAll() {
	n := 0
	for room, set := range h.clients {
		for client := range set {
			close(client.Send)
			n++
		}
		delete(h.clients, room)
	}
	logger.Log.Info("Room hub stopped", zap.Int("closedConnections", n))
}

// Broadcast 推送到房间内所有连接；hub 已停止时丢弃
func (h *RoomHub) Broadcast(room, msgType string, data interface{}) {
	h.enqueue(roomPush{room: room}, msgType, data)
}

func (h *RoomHub) enqueue(p roomPush, msgType string, data interface{}) {
	payload, err := encodeWS(msgType, data)
	if err != nil {
		logger.Log.Error("Room push encode failed", zap.Error(err))
		return
	}
	p.payload = payload
	select {
	case h.push <- p:
		monitoring.RealtimeEvents.WithLabelValues(msgType, "ui").Inc()
	case <-h.done:
	default:
		logger.Log.Warn("Room hub push buffer full, frame dropped", zap.String("room", p.room))
	}
}

func encodeWS(msgType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Data: raw})
}

// ServeWs 升级连接并加入房间，先推送一次当前快照
func ServeWs(hub *RoomHub, w http.ResponseWriter, r *http.Request, room string, initial interface{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("room", room))
		return
	}
	client := &HubClient{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Room:    room,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}
	if initial != nil {
		client.Reply(WSRoomSnapshot, initial)
	}

	go client.writePump()
	go client.readPump()
}
