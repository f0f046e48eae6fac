package service

import (
	"context"
	"learning_portal/internal/config"
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"learning_portal/pkg/logger"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressStore 续播位置读取 + 进度持久化
type ProgressStore interface {
	ProgressSaver
	GetLectureProgress(ctx context.Context, token, courseID, lectureID string) (*model.LectureProgress, error)
}

type playbackEntry struct {
	tracker *ProgressTracker
	player  *ReportedPlayer
}

type PlaybackService struct {
	Progress ProgressStore

	mu       sync.Mutex
	opts     TrackerOptions
	probe    bool
	trackers map[string]*playbackEntry
	// probeFn 便于测试替换
	probeFn func(url string) (float64, error)
}

func NewPlaybackService(progress ProgressStore, cfg config.PlaybackConfig) *PlaybackService {
	s := &PlaybackService{
		Progress: progress,
		trackers: make(map[string]*playbackEntry),
		probeFn:  util.ProbeDuration,
	}
	s.SetConfig(cfg)
	return s
}

// SetConfig 配置热更新只影响之后创建的跟踪器
func (s *PlaybackService) SetConfig(cfg config.PlaybackConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = TrackerOptions{
		SampleInterval:  cfg.SampleInterval,
		PersistInterval: cfg.PersistInterval,
		Threshold:       cfg.CompletionThreshold,
	}
	s.probe = cfg.ProbeDirectVideos
}

// Start 挂载视频页：读取续播位置并创建跟踪器
func (s *PlaybackService) Start(ctx context.Context, sess *model.Session, in model.PlaybackStart) (*model.PlaybackSession, error) {
	if strings.TrimSpace(in.VideoURL) == "" {
		return nil, util.Invalid("videoUrl", "video url is required")
	}

	out := &model.PlaybackSession{
		SessionID: uuid.NewString(),
		CourseID:  in.CourseID,
		LectureID: in.LectureID,
		VideoURL:  in.VideoURL,
		Duration:  in.Duration,
	}
	videoID, isPlatform := util.ExtractVideoID(in.VideoURL)
	if isPlatform {
		out.VideoID = videoID
	}

	// 续播位置读取失败时从头播放
	if p, err := s.Progress.GetLectureProgress(ctx, sess.Token, in.CourseID, in.LectureID); err != nil {
		logger.Log.Debug("Resume position unavailable", zap.String("lectureId", in.LectureID), zap.Error(err))
	} else if p != nil {
		out.ResumeAt = p.CurrentTime
		if out.Duration <= 0 {
			out.Duration = p.Duration
		}
	}

	s.mu.Lock()
	opts, probe := s.opts, s.probe
	s.mu.Unlock()

	if !isPlatform && out.Duration <= 0 && probe {
		if d, err := s.probeFn(in.VideoURL); err != nil {
			logger.Log.Warn("Video duration probe failed", zap.String("url", in.VideoURL), zap.Error(err))
		} else {
			out.Duration = d
		}
	}
	if out.Duration > 0 && out.ResumeAt >= out.Duration {
		out.ResumeAt = 0
	}

	player := NewReportedPlayer(out.Duration)
	player.Report(out.ResumeAt, 0)
	tracker := newProgressTracker(out.SessionID, sess.DeviceID, sess.Token, in.CourseID, in.LectureID, player, s.Progress, opts)

	s.mu.Lock()
	s.trackers[out.SessionID] = &playbackEntry{tracker: tracker, player: player}
	s.mu.Unlock()
	tracker.start()

	logger.Log.Debug("Playback session started",
		zap.String("sessionId", out.SessionID),
		zap.String("deviceId", sess.DeviceID),
		zap.String("lectureId", in.LectureID),
		zap.Float64("resumeAt", out.ResumeAt))
	return out, nil
}

func (s *PlaybackService) entry(deviceID, sessionID string) (*playbackEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.trackers[sessionID]
	if !ok || e.tracker.DeviceID != deviceID {
		return nil, util.ErrTrackerNotFound
	}
	return e, nil
}

func (s *PlaybackService) snapshot(e *playbackEntry) (*TrackerState, error) {
	st, ok := e.tracker.Snapshot()
	if !ok {
		return nil, util.ErrTrackerNotFound
	}
	return &st, nil
}

// Report 前端上报当前播放位置
func (s *PlaybackService) Report(deviceID, sessionID string, r model.PlaybackReport) (*TrackerState, error) {
	e, err := s.entry(deviceID, sessionID)
	if err != nil {
		return nil, err
	}
	e.player.Report(r.CurrentTime, r.Duration)
	return s.snapshot(e)
}

func (s *PlaybackService) Play(deviceID, sessionID string) (*TrackerState, error) {
	return s.signal(deviceID, sessionID, (*ProgressTracker).Play)
}

func (s *PlaybackService) Pause(deviceID, sessionID string) (*TrackerState, error) {
	return s.signal(deviceID, sessionID, (*ProgressTracker).Pause)
}

func (s *PlaybackService) End(deviceID, sessionID string) (*TrackerState, error) {
	return s.signal(deviceID, sessionID, (*ProgressTracker).End)
}

func (s *PlaybackService) signal(deviceID, sessionID string, fn func(*ProgressTracker) bool) (*TrackerState, error) {
	e, err := s.entry(deviceID, sessionID)
	if err != nil {
		return nil, err
	}
	if !fn(e.tracker) {
		return nil, util.ErrTrackerNotFound
	}
	return s.snapshot(e)
}

// Stop 卸载视频页，跟踪器连同完成标记一起丢弃
func (s *PlaybackService) Stop(deviceID, sessionID string) error {
	e, err := s.entry(deviceID, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.trackers, sessionID)
	s.mu.Unlock()
	e.tracker.Stop(false)
	return nil
}

// StopDevice 设备登出时停止其全部跟踪器
func (s *PlaybackService) StopDevice(deviceID string) {
	s.stopWhere(func(t *ProgressTracker) bool { return t.DeviceID == deviceID }, false)
}

// Shutdown 进程退出前保存每个跟踪器的最后位置，并等待上游调用发出
func (s *PlaybackService) Shutdown() {
	s.stopWhere(func(*ProgressTracker) bool { return true }, true)
}

func (s *PlaybackService) stopWhere(match func(*ProgressTracker) bool, flush bool) {
	s.mu.Lock()
	var stopping []*ProgressTracker
	for id, e := range s.trackers {
		if match(e.tracker) {
			stopping = append(stopping, e.tracker)
			delete(s.trackers, id)
		}
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range stopping {
		wg.Add(1)
		go func(t *ProgressTracker) {
			defer wg.Done()
			t.Stop(flush)
			if flush {
				t.Wait()
			}
		}(t)
	}
	wg.Wait()
}

func (s *PlaybackService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}
