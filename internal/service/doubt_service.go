package service

import (
	"context"
	"encoding/json"
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/monitoring"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DoubtAPI 答疑上游接口
type DoubtAPI interface {
	MessageSender
	List(ctx context.Context, token string, query url.Values) ([]model.Doubt, error)
	Get(ctx context.Context, token, id string) (*model.Doubt, error)
	Create(ctx context.Context, token string, in model.NewDoubt) (*model.Doubt, error)
	UpdateStatus(ctx context.Context, token, doubtID string, status model.DoubtStatus) (*model.Doubt, error)
}

// ChannelSource 按设备提供实时频道，ChannelPool 是其实现
type ChannelSource interface {
	For(sess *model.Session) RoomChannel
	Release(deviceID string)
	Close()
}

type DoubtService struct {
	Repo     DoubtAPI
	Channels ChannelSource
	Hub      *RoomHub

	mu    sync.Mutex
	rooms map[string]*DoubtRoom
}

func NewDoubtService(repo DoubtAPI, channels *ChannelPool, hub *RoomHub) *DoubtService {
	s := &DoubtService{
		Repo:     repo,
		Channels: channels,
		Hub:      hub,
		rooms:    make(map[string]*DoubtRoom),
	}
	if hub != nil {
		hub.Handler = s.handleWS
	}
	return s
}

// RoomKey 本地房间标识：设备 + doubt
func RoomKey(deviceID, doubtID string) string {
	return deviceID + "/" + doubtID
}

func (s *DoubtService) List(ctx context.Context, sess *model.Session, status string) ([]model.Doubt, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	return s.Repo.List(ctx, sess.Token, q)
}

func (s *DoubtService) Create(ctx context.Context, sess *model.Session, in model.NewDoubt) (*model.Doubt, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Subject == "" {
		return nil, util.Invalid("subject", "please choose a subject")
	}
	if in.Title == "" {
		return nil, util.Invalid("title", "please describe your doubt")
	}
	if in.Message == "" {
		return nil, util.Invalid("message", "message cannot be empty")
	}
	return s.Repo.Create(ctx, sess.Token, in)
}

// Open 打开答疑会话；已打开时返回现有房间的快照
func (s *DoubtService) Open(ctx context.Context, sess *model.Session, doubtID string) (*model.Doubt, error) {
	key := RoomKey(sess.DeviceID, doubtID)
	s.mu.Lock()
	room, ok := s.rooms[key]
	if ok && !room.detached() {
		s.mu.Unlock()
		return room.Snapshot(), nil
	}
	if ok {
		// 实时订阅已随旧连接关闭，重建房间
		delete(s.rooms, key)
	}
	s.mu.Unlock()
	if ok {
		room.Close()
		monitoring.OpenRooms.Dec()
		logger.Log.Debug("Detached doubt room rebuilt", zap.String("deviceId", sess.DeviceID), zap.String("doubtId", doubtID))
	}

	doubt, err := s.Repo.Get(ctx, sess.Token, doubtID)
	if err != nil {
		return nil, err
	}
	if doubt.ID == "" {
		doubt.ID = doubtID
	}

	room = newDoubtRoom(sess, doubt, s.Repo, s.Channels.For(sess), s.pushFunc(key))

	s.mu.Lock()
	// 并发打开同一会话时保留先到的房间
	if existing, ok := s.rooms[key]; ok {
		s.mu.Unlock()
		return existing.Snapshot(), nil
	}
	s.rooms[key] = room
	s.mu.Unlock()

	room.open()
	monitoring.OpenRooms.Inc()
	logger.Log.Debug("Doubt room opened", zap.String("deviceId", sess.DeviceID), zap.String("doubtId", doubtID))
	return room.Snapshot(), nil
}

func (s *DoubtService) pushFunc(key string) func(*model.Doubt) {
	if s.Hub == nil {
		return nil
	}
	return func(d *model.Doubt) {
		s.Hub.Broadcast(key, WSRoomSnapshot, d)
	}
}

func (s *DoubtService) room(deviceID, doubtID string) (*DoubtRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[RoomKey(deviceID, doubtID)]
	if !ok {
		return nil, util.ErrRoomNotOpen
	}
	return room, nil
}

// Room 已打开的房间快照，用于 websocket 首帧
func (s *DoubtService) Room(deviceID, doubtID string) (*model.Doubt, error) {
	room, err := s.room(deviceID, doubtID)
	if err != nil {
		return nil, err
	}
	return room.Snapshot(), nil
}

// Messages 房间已打开时返回本地（含待确认）消息，否则向上游读取
func (s *DoubtService) Messages(ctx context.Context, sess *model.Session, doubtID string) ([]model.Message, error) {
	if room, err := s.room(sess.DeviceID, doubtID); err == nil {
		return room.Messages(), nil
	}
	doubt, err := s.Repo.Get(ctx, sess.Token, doubtID)
	if err != nil {
		return nil, err
	}
	if doubt.Messages == nil {
		return []model.Message{}, nil
	}
	return doubt.Messages, nil
}

func (s *DoubtService) Send(ctx context.Context, sess *model.Session, doubtID, content string) (*model.Message, error) {
	room, err := s.room(sess.DeviceID, doubtID)
	if err != nil {
		return nil, err
	}
	return room.Send(ctx, content)
}

func (s *DoubtService) Close(deviceID, doubtID string) error {
	key := RoomKey(deviceID, doubtID)
	s.mu.Lock()
	room, ok := s.rooms[key]
	delete(s.rooms, key)
	s.mu.Unlock()
	if !ok {
		return util.ErrRoomNotOpen
	}
	room.Close()
	monitoring.OpenRooms.Dec()
	return nil
}

// UpdateStatus 老师接单/解决；学生只能把自己的会话标记为已解决
func (s *DoubtService) UpdateStatus(ctx context.Context, sess *model.Session, doubtID string, status model.DoubtStatus) (*model.Doubt, error) {
	switch status {
	case model.DoubtPending, model.DoubtInProgress, model.DoubtResolved:
	default:
		return nil, util.Invalid("status", "unknown status %q", status)
	}
	if !sess.IsTeacher() && status != model.DoubtResolved {
		return nil, util.ErrPermissionDenied
	}
	d, err := s.Repo.UpdateStatus(ctx, sess.Token, doubtID, status)
	if err != nil {
		return nil, err
	}
	if room, err := s.room(sess.DeviceID, doubtID); err == nil {
		room.mu.Lock()
		room.doubt.Status = d.Status
		room.mu.Unlock()
		room.changed()
	}
	return d, nil
}

// CloseDevice 设备登出：关闭其全部房间并断开实时连接
func (s *DoubtService) CloseDevice(deviceID string) {
	s.closeWhere(func(r *DoubtRoom) bool { return r.DeviceID == deviceID })
	s.Channels.Release(deviceID)
}

func (s *DoubtService) Shutdown() {
	s.closeWhere(func(*DoubtRoom) bool { return true })
	s.Channels.Close()
}

func (s *DoubtService) closeWhere(match func(*DoubtRoom) bool) {
	s.mu.Lock()
	var closing []*DoubtRoom
	for key, r := range s.rooms {
		if match(r) {
			closing = append(closing, r)
			delete(s.rooms, key)
		}
	}
	s.mu.Unlock()
	for _, r := range closing {
		r.Close()
		monitoring.OpenRooms.Dec()
	}
}

// handleWS UI 通过 websocket 发送消息
func (s *DoubtService) handleWS(c *HubClient, msg WSMessage) {
	if msg.Type != WSSendMessage {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		c.Reply(WSError, wsError("invalid payload"))
		return
	}

	s.mu.Lock()
	room, ok := s.rooms[c.Room]
	s.mu.Unlock()
	if !ok {
		c.Reply(WSError, wsError(util.ErrRoomNotOpen.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := room.Send(ctx, body.Content); err != nil {
		c.Reply(WSError, wsError(err.Error()))
	}
}

func wsError(message string) map[string]string {
	return map[string]string{"message": message}
}
