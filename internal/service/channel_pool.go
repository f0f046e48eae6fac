package service

import (
	"context"
	"learning_portal/internal/config"
	"learning_portal/internal/model"
	"learning_portal/pkg/realtime"
	"sync"
)

type poolEntry struct {
	client *realtime.Client
	token  string
}

// ChannelPool 每个设备一条到上游实时频道的连接，首次打开聊天室时建立
type ChannelPool struct {
	url  string
	chat config.ChatConfig
	ctx  context.Context

	mu      sync.Mutex
	clients map[string]*poolEntry
}

func NewChannelPool(ctx context.Context, socketURL string, chat config.ChatConfig) *ChannelPool {
	return &ChannelPool{
		url:     socketURL,
		chat:    chat,
		ctx:     ctx,
		clients: make(map[string]*poolEntry),
	}
}

// For 返回设备的实时连接；未配置 socket 地址时返回 nil。
// 令牌变化（重新登录）时重建连接。
func (p *ChannelPool) For(sess *model.Session) RoomChannel {
	if p == nil || p.url == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.clients[sess.DeviceID]; ok {
		if e.token == sess.Token {
			return e.client
		}
		go e.client.Close()
	}
	c := realtime.New(realtime.Config{
		URL:          p.url,
		Token:        sess.Token,
		ReconnectMin: p.chat.ReconnectMin,
		ReconnectMax: p.chat.ReconnectMax,
	})
	c.Start(p.ctx)
	p.clients[sess.DeviceID] = &poolEntry{client: c, token: sess.Token}
	return c
}

func (p *ChannelPool) Release(deviceID string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	e, ok := p.clients[deviceID]
	delete(p.clients, deviceID)
	p.mu.Unlock()
	if ok {
		e.client.Close()
	}
}

func (p *ChannelPool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	entries := p.clients
	p.clients = make(map[string]*poolEntry)
	p.mu.Unlock()
	for _, e := range entries {
		e.client.Close()
	}
}

// Stats 连接总数与已连接数
func (p *ChannelPool) Stats() (total, connected int) {
	if p == nil {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.clients {
		total++
		if e.client.Connected() {
			connected++
		}
	}
	return total, connected
}

func (p *ChannelPool) Enabled() bool {
	return p != nil && p.url != ""
}
