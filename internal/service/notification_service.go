package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"sync"
)

type NotificationAPI interface {
	List(ctx context.Context, token string) ([]model.Notification, error)
	MarkRead(ctx context.Context, token, id string) error
	MarkAllRead(ctx context.Context, token string) error
	Delete(ctx context.Context, token, id string) error
	GetSettings(ctx context.Context, token string) (*model.NotificationSettings, error)
	UpdateSettings(ctx context.Context, token string, s model.NotificationSettings) error
}

type notificationState struct {
	mu       sync.Mutex
	items    []model.Notification
	settings *model.NotificationSettings
}

// NotificationService 通知列表与设置。
// 已读、删除和开关都是乐观更新：先改本地状态再调上游，失败时回滚。
type NotificationService struct {
	Repo NotificationAPI

	mu     sync.Mutex
	states map[string]*notificationState
}

func NewNotificationService(repo NotificationAPI) *NotificationService {
	return &NotificationService{Repo: repo, states: make(map[string]*notificationState)}
}

func (s *NotificationService) state(deviceID string) *notificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[deviceID]
	if !ok {
		st = &notificationState{}
		s.states[deviceID] = st
	}
	return st
}

// Forget 设备登出时丢弃本地状态
func (s *NotificationService) Forget(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, deviceID)
}

func view(items []model.Notification) *model.NotificationView {
	v := &model.NotificationView{Items: append([]model.Notification{}, items...)}
	for _, n := range items {
		if !n.IsRead {
			v.Unread++
		}
	}
	return v
}

// List 拉取并缓存通知列表
func (s *NotificationService) List(ctx context.Context, sess *model.Session) (*model.NotificationView, error) {
	items, err := s.Repo.List(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	st := s.state(sess.DeviceID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.items = items
	return view(st.items), nil
}

// UnreadCount 使用缓存；尚未拉取过时向上游读取
func (s *NotificationService) UnreadCount(ctx context.Context, sess *model.Session) (int, error) {
	st := s.state(sess.DeviceID)
	st.mu.Lock()
	if st.items != nil {
		n := view(st.items).Unread
		st.mu.Unlock()
		return n, nil
	}
	st.mu.Unlock()
	v, err := s.List(ctx, sess)
	if err != nil {
		return 0, err
	}
	return v.Unread, nil
}

// optimistic 先执行 apply，上游失败时恢复原列表
func (s *NotificationService) optimistic(ctx context.Context, sess *model.Session, apply func([]model.Notification) []model.Notification, call func() error) (*model.NotificationView, error) {
	st := s.state(sess.DeviceID)
	st.mu.Lock()
	before := append([]model.Notification(nil), st.items...)
	st.items = apply(append([]model.Notification(nil), st.items...))
	st.mu.Unlock()

	if err := call(); err != nil {
		st.mu.Lock()
		st.items = before
		st.mu.Unlock()
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return view(st.items), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, sess *model.Session, id string) (*model.NotificationView, error) {
	return s.optimistic(ctx, sess, func(items []model.Notification) []model.Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].IsRead = true
			}
		}
		return items
	}, func() error {
		return s.Repo.MarkRead(ctx, sess.Token, id)
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, sess *model.Session) (*model.NotificationView, error) {
	return s.optimistic(ctx, sess, func(items []model.Notification) []model.Notification {
		for i := range items {
			items[i].IsRead = true
		}
		return items
	}, func() error {
		return s.Repo.MarkAllRead(ctx, sess.Token)
	})
}

func (s *NotificationService) Delete(ctx context.Context, sess *model.Session, id string) (*model.NotificationView, error) {
	return s.optimistic(ctx, sess, func(items []model.Notification) []model.Notification {
		out := items[:0]
		for _, n := range items {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	}, func() error {
		return s.Repo.Delete(ctx, sess.Token, id)
	})
}

func (s *NotificationService) Settings(ctx context.Context, sess *model.Session) (*model.NotificationSettings, error) {
	settings, err := s.Repo.GetSettings(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	if settings.Channels == nil {
		settings.Channels = map[string]bool{}
	}
	st := s.state(sess.DeviceID)
	st.mu.Lock()
	st.settings = cloneSettings(settings)
	st.mu.Unlock()
	return settings, nil
}

func cloneSettings(in *model.NotificationSettings) *model.NotificationSettings {
	out := *in
	out.Channels = make(map[string]bool, len(in.Channels))
	for k, v := range in.Channels {
		out.Channels[k] = v
	}
	return &out
}

// UpdateSettings 切换开关，失败时恢复为切换前的设置
func (s *NotificationService) UpdateSettings(ctx context.Context, sess *model.Session, patch model.SettingsPatch) (*model.NotificationSettings, error) {
	if patch.Push == nil && patch.Email == nil && len(patch.Channels) == 0 {
		return nil, util.Invalid("settings", "nothing to update")
	}

	st := s.state(sess.DeviceID)
	st.mu.Lock()
	loaded := st.settings != nil
	st.mu.Unlock()
	if !loaded {
		if _, err := s.Settings(ctx, sess); err != nil {
			return nil, err
		}
	}

	st.mu.Lock()
	before := cloneSettings(st.settings)
	next := cloneSettings(st.settings)
	if patch.Push != nil {
		next.Push = *patch.Push
	}
	if patch.Email != nil {
		next.Email = *patch.Email
	}
	for k, v := range patch.Channels {
		next.Channels[k] = v
	}
	st.settings = next
	st.mu.Unlock()

	if err := s.Repo.UpdateSettings(ctx, sess.Token, *next); err != nil {
		st.mu.Lock()
		st.settings = before
		st.mu.Unlock()
		return nil, err
	}
	return cloneSettings(next), nil
}

// CachedSettings 当前本地设置（含未确认的切换），未加载时为 nil
func (s *NotificationService) CachedSettings(deviceID string) *model.NotificationSettings {
	st := s.state(deviceID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.settings == nil {
		return nil
	}
	return cloneSettings(st.settings)
}

// Cached 当前本地通知列表
func (s *NotificationService) Cached(deviceID string) *model.NotificationView {
	st := s.state(deviceID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return view(st.items)
}
