package service

import (
	"context"
	"errors"
	"learning_portal/internal/model"
	"learning_portal/internal/repository"
	"learning_portal/internal/util"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/security"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type AuthService struct {
	AuthRepo *repository.AuthRepository
	Store    repository.TokenStore
	Sealer   *security.Sealer

	mu       sync.Mutex
	onLogout []func(deviceID string)
	now      func() time.Time
}

func NewAuthService(authRepo *repository.AuthRepository, store repository.TokenStore, sealer *security.Sealer) *AuthService {
	return &AuthService{
		AuthRepo: authRepo,
		Store:    store,
		Sealer:   sealer,
		now:      time.Now,
	}
}

// OnLogout 注册设备登出或重新登录时的清理回调（停止播放跟踪、关闭聊天室等）
func (s *AuthService) OnLogout(fn func(deviceID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

func (s *AuthService) Login(ctx context.Context, deviceID, email, password string) (*model.Session, *model.User, error) {
	if deviceID == "" {
		return nil, nil, util.ErrMissingDevice
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil, util.Invalid("email", "email is required")
	}
	if password == "" {
		return nil, nil, util.Invalid("password", "password is required")
	}

	res, err := s.AuthRepo.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if res.Token == "" {
		return nil, nil, errors.New("upstream login returned no token")
	}

	sess, err := s.sessionFromToken(deviceID, res.Token)
	if err != nil {
		return nil, nil, err
	}
	if res.User != nil && sess.Role == "" {
		sess.Role = res.User.Role
	}

	sealed, err := s.Sealer.Seal(res.Token)
	if err != nil {
		return nil, nil, err
	}
	// 同一设备重新登录：先结束上一次会话的本地状态
	if _, err := s.Store.Get(ctx, deviceID); err == nil {
		s.endSession(deviceID)
		logger.Log.Info("Previous device session replaced", zap.String("deviceId", deviceID))
	}
	if err := s.Store.Set(ctx, deviceID, sealed, sess.ExpiresAt); err != nil {
		return nil, nil, err
	}

	logger.Log.Info("Device logged in", zap.String("deviceId", deviceID), zap.String("userId", sess.UserID))
	return sess, res.User, nil
}

// Session 读取设备的登录态；过期令牌会被删除
func (s *AuthService) Session(ctx context.Context, deviceID string) (*model.Session, error) {
	if deviceID == "" {
		return nil, util.ErrMissingDevice
	}
	sealed, err := s.Store.Get(ctx, deviceID)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, util.ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	token, err := s.Sealer.Open(sealed)
	if err != nil {
		logger.Log.Warn("Stored token could not be opened", zap.String("deviceId", deviceID), zap.Error(err))
		s.Store.Delete(ctx, deviceID)
		return nil, util.ErrNotLoggedIn
	}

	sess, err := s.sessionFromToken(deviceID, token)
	if err != nil {
		s.Store.Delete(ctx, deviceID)
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) sessionFromToken(deviceID, token string) (*model.Session, error) {
	claims, err := util.ParseTokenClaims(token)
	if err != nil {
		return nil, util.ErrNotLoggedIn
	}
	if claims.Expired(s.now()) {
		return nil, util.ErrSessionExpired
	}
	sess := &model.Session{
		DeviceID: deviceID,
		Token:    token,
		UserID:   claims.UserID,
		Role:     claims.Role,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, deviceID string) error {
	if err := s.Store.Delete(ctx, deviceID); err != nil {
		return err
	}
	s.endSession(deviceID)
	logger.Log.Info("Device logged out", zap.String("deviceId", deviceID))
	return nil
}

// endSession 依次调用登出回调
func (s *AuthService) endSession(deviceID string) {
	s.mu.Lock()
	callbacks := append([]func(string){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(deviceID)
	}
}

func (s *AuthService) Profile(ctx context.Context, sess *model.Session) (*model.User, error) {
	return s.AuthRepo.Me(ctx, sess.Token)
}
