// Package realtime keeps a room-based websocket connection to the upstream live channel.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"learning_portal/pkg/logger"
	"learning_portal/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	subBuffer      = 64
)

const (
	FrameJoin  = "join"
	FrameLeave = "leave"
)

// Event 上游推送的房间事件
type Event struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data,omitempty"`
}

type frame struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type Config struct {
	URL          string
	Token        string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Dialer       *websocket.Dialer
}

type Client struct {
	cfg Config

	mu        sync.Mutex
	rooms     map[string]int
	subs      map[string]map[int]chan Event
	nextSub   int
	connected bool
	send      chan []byte

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config) *Client {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = cfg.ReconnectMin
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{
		cfg:   cfg,
		rooms: make(map[string]int),
		subs:  make(map[string]map[int]chan Event),
		send:  make(chan []byte, 64),
		done:  make(chan struct{}),
	}
}

// Start 在后台维持连接，断线后按指数退避重连并重新加入所有房间
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	c.mu.Lock()
	for room, m := range c.subs {
		for id, ch := range m {
			close(ch)
			delete(m, id)
		}
		delete(c.subs, room)
	}
	c.mu.Unlock()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Join 房间引用计数，首次加入时发送 join
func (c *Client) Join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room]++
	if c.rooms[room] == 1 && c.connected {
		c.enqueueLocked(frame{Type: FrameJoin, Room: room})
	}
}

func (c *Client) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.rooms[room]
	if !ok {
		return
	}
	if n > 1 {
		c.rooms[room] = n - 1
		return
	}
	delete(c.rooms, room)
	if c.connected {
		c.enqueueLocked(frame{Type: FrameLeave, Room: room})
	}
}

// Subscribe 返回该房间的事件通道，调用 cancel 退订
func (c *Client) Subscribe(room string) (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, subBuffer)
	if c.subs[room] == nil {
		c.subs[room] = make(map[int]chan Event)
	}
	c.subs[room][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if m, ok := c.subs[room]; ok {
				if sub, ok := m[id]; ok {
					close(sub)
					delete(m, id)
				}
				if len(m) == 0 {
					delete(c.subs, room)
				}
			}
		})
	}
}

func (c *Client) enqueueLocked(f frame) {
	payload, _ := json.Marshal(f)
	select {
	case c.send <- payload:
		monitoring.RealtimeEvents.WithLabelValues(f.Type, "out").Inc()
	default:
		logger.Log.Warn("Realtime send buffer full, frame dropped", zap.String("type", f.Type), zap.String("room", f.Room))
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	backoff := c.cfg.ReconnectMin
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Log.Debug("Realtime dial failed", zap.Error(err), zap.Duration("retryIn", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.ReconnectMax {
				backoff = c.cfg.ReconnectMax
			}
			continue
		}
		backoff = c.cfg.ReconnectMin

		c.onConnected()
		c.serve(ctx, conn)
		c.onDisconnected()

		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
		q := u.Query()
		q.Set("token", c.cfg.Token)
		u.RawQuery = q.Encode()
	}
	conn, _, err := c.cfg.Dialer.DialContext(ctx, u.String(), header)
	return conn, err
}

func (c *Client) onConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	for room := range c.rooms {
		c.enqueueLocked(frame{Type: FrameJoin, Room: room})
	}
	monitoring.RealtimeConnected.Set(1)
	logger.Log.Info("Realtime channel connected", zap.Int("rooms", len(c.rooms)))
}

func (c *Client) onDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	// 丢弃未发出的帧，重连后统一重新 join
	for {
		select {
		case <-c.send:
			continue
		default:
		}
		break
	}
	monitoring.RealtimeConnected.Set(0)
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(conn, stop)
	}()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	c.readPump(conn)
	close(stop)
	conn.Close()
	wg.Wait()
}

func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warn("Realtime unexpected close", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil || ev.Room == "" {
			continue
		}
		monitoring.RealtimeEvents.WithLabelValues(ev.Type, "in").Inc()
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs[ev.Room] {
		select {
		case ch <- ev:
		default:
			logger.Log.Warn("Realtime subscriber slow, event dropped", zap.String("room", ev.Room), zap.String("type", ev.Type))
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
