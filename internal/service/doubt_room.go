package service

import (
	"context"
	"encoding/json"
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/realtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// EventDoubtUpdated 携带完整 doubt（含消息列表）
	EventDoubtUpdated = "doubt:updated"
	// EventDoubtMessage 携带单条消息
	EventDoubtMessage = "doubt:message"

	tempIDPrefix = "temp-"
)

// RoomChannel 实时频道中与房间相关的能力
type RoomChannel interface {
	Join(room string)
	Leave(room string)
	Subscribe(room string) (<-chan realtime.Event, func())
}

// MessageSender 发送聊天消息的上游接口
type MessageSender interface {
	SendMessage(ctx context.Context, token, doubtID, content, clientMsgID string) (*model.Message, error)
}

func ChannelRoom(doubtID string) string {
	return "doubt:" + doubtID
}

// DoubtRoom 一个打开的答疑会话。
// 消息列表由互斥锁保护；每次变化后通过 onChange 推送快照。
type DoubtRoom struct {
	DoubtID  string
	DeviceID string

	sess     *model.Session
	sender   MessageSender
	channel  RoomChannel
	onChange func(*model.Doubt)

	mu       sync.Mutex
	doubt    model.Doubt
	messages []model.Message
	closed   bool

	unsubscribe func()
	done        chan struct{}
}

func newDoubtRoom(sess *model.Session, doubt *model.Doubt, sender MessageSender, channel RoomChannel, onChange func(*model.Doubt)) *DoubtRoom {
	r := &DoubtRoom{
		DoubtID:  doubt.ID,
		DeviceID: sess.DeviceID,
		sess:     sess,
		sender:   sender,
		channel:  channel,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	r.doubt = *doubt
	r.doubt.Messages = nil
	r.messages = append([]model.Message(nil), doubt.Messages...)
	return r
}

// open 订阅并加入实时房间；没有实时频道时只依赖 HTTP 响应
func (r *DoubtRoom) open() {
	if r.channel == nil {
		close(r.done)
		return
	}
	room := ChannelRoom(r.DoubtID)
	events, cancel := r.channel.Subscribe(room)
	r.unsubscribe = cancel
	r.channel.Join(room)
	go r.consume(events)
}

func (r *DoubtRoom) consume(events <-chan realtime.Event) {
	defer close(r.done)
	for ev := range events {
		r.applyEvent(ev)
	}
}

// detached 实时订阅已被关闭（连接被替换或关闭）但房间本身未关闭
func (r *DoubtRoom) detached() bool {
	if r.channel == nil {
		return false
	}
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Close 离开实时房间并停止消费，房间状态随之丢弃
func (r *DoubtRoom) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	if r.channel != nil {
		r.channel.Leave(ChannelRoom(r.DoubtID))
		r.unsubscribe()
	}
	<-r.done
}

// Snapshot 当前 doubt 及消息列表的副本
func (r *DoubtRoom) Snapshot() *model.Doubt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *DoubtRoom) snapshotLocked() *model.Doubt {
	d := r.doubt
	d.Messages = append([]model.Message{}, r.messages...)
	return &d
}

func (r *DoubtRoom) Messages() []model.Message {
	return r.Snapshot().Messages
}

// changed 推送当前快照，调用方不能持有锁
func (r *DoubtRoom) changed() {
	if r.onChange == nil {
		return
	}
	r.mu.Lock()
	snap := r.snapshotLocked()
	r.mu.Unlock()
	r.onChange(snap)
}

// Send 乐观发送：临时消息立即可见，失败时移除，成功时替换为服务端消息
func (r *DoubtRoom) Send(ctx context.Context, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, util.Invalid("content", "message cannot be empty")
	}

	clientMsgID := uuid.NewString()
	temp := model.Message{
		ID:          tempIDPrefix + clientMsgID,
		DoubtID:     r.DoubtID,
		SenderID:    r.sess.UserID,
		SenderRole:  r.sess.Role,
		Content:     content,
		CreatedAt:   time.Now(),
		ClientMsgID: clientMsgID,
		Pending:     true,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, util.ErrRoomNotOpen
	}
	r.messages = append(r.messages, temp)
	r.mu.Unlock()
	r.changed()

	msg, err := r.sender.SendMessage(ctx, r.sess.Token, r.DoubtID, content, clientMsgID)
	if err != nil {
		r.mu.Lock()
		r.removeLocked(temp.ID)
		r.mu.Unlock()
		r.changed()
		logger.Log.Debug("Doubt message rolled back", zap.String("doubtId", r.DoubtID), zap.Error(err))
		return nil, err
	}

	if msg.ClientMsgID == "" {
		msg.ClientMsgID = clientMsgID
	}
	msg.Pending = false
	r.mu.Lock()
	r.mergeLocked(*msg)
	r.mu.Unlock()
	r.changed()
	return msg, nil
}

func (r *DoubtRoom) removeLocked(id string) {
	for i, m := range r.messages {
		if m.ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return
		}
	}
}

// mergeLocked 同一条消息只保留一份：ID 或 ClientMsgID 相同的条目全部移除，
// 新消息放在 ID 相同的条目处，其次是临时消息处，都没有则追加
func (r *DoubtRoom) mergeLocked(msg model.Message) {
	at := -1
	for i, m := range r.messages {
		if m.ID == msg.ID {
			at = i
			break
		}
	}

	kept := r.messages[:0]
	placed := false
	for i, m := range r.messages {
		if m.ID != msg.ID && (msg.ClientMsgID == "" || m.ClientMsgID != msg.ClientMsgID) {
			kept = append(kept, m)
			continue
		}
		if !placed && (at < 0 || i == at) {
			kept = append(kept, msg)
			placed = true
		}
	}
	if !placed {
		kept = append(kept, msg)
	}
	r.messages = kept
}

func (r *DoubtRoom) applyEvent(ev realtime.Event) {
	switch ev.Type {
	case EventDoubtUpdated:
		var d model.Doubt
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			logger.Log.Warn("Bad doubt payload", zap.String("room", ev.Room), zap.Error(err))
			return
		}
		r.mu.Lock()
		if d.Messages != nil {
			r.messages = d.Messages
		}
		d.Messages = nil
		if d.ID == "" {
			d.ID = r.DoubtID
		}
		r.doubt = d
		r.mu.Unlock()
	case EventDoubtMessage:
		var m model.Message
		if err := json.Unmarshal(ev.Data, &m); err != nil || m.ID == "" {
			logger.Log.Warn("Bad message payload", zap.String("room", ev.Room), zap.Error(err))
			return
		}
		m.Pending = false
		r.mu.Lock()
		r.mergeLocked(m)
		r.mu.Unlock()
	default:
		return
	}
	r.changed()
}
