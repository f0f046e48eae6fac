package service

import (
	"context"
	"learning_portal/pkg/logger"
	"learning_portal/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Player 播放器状态来源：当前播放位置与总时长（秒）
type Player interface {
	CurrentTime() float64
	Duration() float64
}

// ReportedPlayer 由前端上报位置的播放器
type ReportedPlayer struct {
	mu       sync.RWMutex
	current  float64
	duration float64
}

func NewReportedPlayer(duration float64) *ReportedPlayer {
	return &ReportedPlayer{duration: duration}
}

// Report duration<=0 时保留已知时长
func (p *ReportedPlayer) Report(current, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current >= 0 {
		p.current = current
	}
	if duration > 0 {
		p.duration = duration
	}
}

func (p *ReportedPlayer) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *ReportedPlayer) Duration() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.duration
}

// ProgressSaver 进度持久化接口
type ProgressSaver interface {
	SaveLectureProgress(ctx context.Context, token, courseID, lectureID string, currentTime, duration float64) error
	MarkLectureComplete(ctx context.Context, token, courseID, lectureID string, watched, duration float64) error
}

// syncQueueSize 每个跟踪器待发上游调用的上限，超出时丢弃并计数
const syncQueueSize = 32

type TrackerOptions struct {
	SampleInterval  time.Duration
	PersistInterval time.Duration
	Threshold       float64
	CallTimeout     time.Duration
}

type trackerEventKind int

const (
	evPlay trackerEventKind = iota
	evPause
	evEnd
	evSnapshot
	evStop
)

type trackerEvent struct {
	kind  trackerEventKind
	flush bool
	reply chan TrackerState
}

// TrackerState 跟踪器快照
type TrackerState struct {
	SessionID string  `json:"sessionId"`
	CourseID  string  `json:"courseId"`
	LectureID string  `json:"lectureId"`
	Playing   bool    `json:"playing"`
	LastKnown float64 `json:"lastKnown"`
	Duration  float64 `json:"duration"`
	Completed bool    `json:"completed"`
	Ended     bool    `json:"ended"`
}

// ProgressTracker 一次视频页挂载对应一个跟踪器。
// 播放期间两个独立定时器：采样定时器读取播放位置，持久化定时器保存位置，
// 并在观看比例首次达到阈值时标记完成（每个跟踪器至多一次）。
// 所有状态只在 run 协程内读写；上游调用按顺序交给 syncLoop 协程发出，
// 慢请求不会阻塞播放控制。
type ProgressTracker struct {
	ID        string
	DeviceID  string
	CourseID  string
	LectureID string

	token  string
	player Player
	saver  ProgressSaver
	opts   TrackerOptions

	events chan trackerEvent
	done   chan struct{}
	syncQ  chan syncCall
	synced chan struct{}

	playing   bool
	lastKnown float64
	completed bool
	ended     bool
}

func newProgressTracker(id, deviceID, token, courseID, lectureID string, player Player, saver ProgressSaver, opts TrackerOptions) *ProgressTracker {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	return &ProgressTracker{
		ID:        id,
		DeviceID:  deviceID,
		CourseID:  courseID,
		LectureID: lectureID,
		token:     token,
		player:    player,
		saver:     saver,
		opts:      opts,
		events:    make(chan trackerEvent),
		done:      make(chan struct{}),
		syncQ:     make(chan syncCall, syncQueueSize),
		synced:    make(chan struct{}),
	}
}

func (t *ProgressTracker) start() {
	monitoring.ActiveTrackers.Inc()
	go t.syncLoop()
	go t.run()
}

func (t *ProgressTracker) run() {
	defer func() {
		monitoring.ActiveTrackers.Dec()
		close(t.syncQ)
		close(t.done)
	}()

	var sampleTicker, persistTicker *time.Ticker
	var sampleC, persistC <-chan time.Time

	startTimers := func() {
		sampleTicker = time.NewTicker(t.opts.SampleInterval)
		persistTicker = time.NewTicker(t.opts.PersistInterval)
		sampleC, persistC = sampleTicker.C, persistTicker.C
	}
	stopTimers := func() {
		if sampleTicker != nil {
			sampleTicker.Stop()
			persistTicker.Stop()
			sampleTicker, persistTicker = nil, nil
		}
		sampleC, persistC = nil, nil
	}
	defer stopTimers()

	for {
		select {
		case ev := <-t.events:
			switch ev.kind {
			case evPlay:
				if !t.playing {
					t.playing = true
					t.ended = false
					startTimers()
				}
			case evPause:
				if t.playing {
					t.playing = false
					stopTimers()
				}
			case evEnd:
				t.playing = false
				stopTimers()
				t.handleEnd()
			case evSnapshot:
				ev.reply <- t.snapshot()
			case evStop:
				stopTimers()
				if ev.flush && !t.ended {
					t.sample()
					if t.lastKnown > 0 {
						t.savePosition(t.lastKnown)
					}
				}
				return
			}
		case <-sampleC:
			t.sample()
		case <-persistC:
			t.persist()
		}
	}
}

// send 跟踪器已停止时返回 false
func (t *ProgressTracker) send(ev trackerEvent) bool {
	select {
	case t.events <- ev:
		return true
	case <-t.done:
		return false
	}
}

func (t *ProgressTracker) Play() bool  { return t.send(trackerEvent{kind: evPlay}) }
func (t *ProgressTracker) Pause() bool { return t.send(trackerEvent{kind: evPause}) }
func (t *ProgressTracker) End() bool   { return t.send(trackerEvent{kind: evEnd}) }

func (t *ProgressTracker) Snapshot() (TrackerState, bool) {
	reply := make(chan TrackerState, 1)
	if !t.send(trackerEvent{kind: evSnapshot, reply: reply}) {
		return TrackerState{}, false
	}
	return <-reply, true
}

// Stop 卸载：停止定时器并退出；flush 为 true 时先保存一次当前位置。
// 不等待已排队的上游调用，需要时用 Wait。
func (t *ProgressTracker) Stop(flush bool) {
	if t.send(trackerEvent{kind: evStop, flush: flush}) {
		<-t.done
	}
}

// Wait 等待排队的上游调用全部发出，须在 Stop 之后调用
func (t *ProgressTracker) Wait() {
	<-t.synced
}

func (t *ProgressTracker) snapshot() TrackerState {
	return TrackerState{
		SessionID: t.ID,
		CourseID:  t.CourseID,
		LectureID: t.LectureID,
		Playing:   t.playing,
		LastKnown: t.lastKnown,
		Duration:  t.player.Duration(),
		Completed: t.completed,
		Ended:     t.ended,
	}
}

// sample 采样定时器：读取播放器当前位置
func (t *ProgressTracker) sample() {
	if cur := t.player.CurrentTime(); cur > 0 {
		t.lastKnown = cur
	}
}

// persist 持久化定时器：保存最近位置，观看比例过阈值时标记一次完成
func (t *ProgressTracker) persist() {
	if t.lastKnown <= 0 {
		return
	}
	t.savePosition(t.lastKnown)

	duration := t.player.Duration()
	if t.completed || duration <= 0 {
		return
	}
	if t.lastKnown/duration >= t.opts.Threshold {
		t.completed = true
		t.markComplete("threshold", t.lastKnown, duration)
	}
}

// handleEnd 播放结束：位置归零并按时长标记完成，不看阈值标记是否已触发
func (t *ProgressTracker) handleEnd() {
	t.ended = true
	t.lastKnown = 0
	duration := t.player.Duration()
	t.savePosition(0)
	t.completed = true
	t.markComplete("ended", duration, duration)
}

type syncCall struct {
	kind string
	call func(ctx context.Context) error
}

// dispatch 把上游调用交给 syncLoop，队列满时丢弃
func (t *ProgressTracker) dispatch(kind string, call func(ctx context.Context) error) {
	select {
	case t.syncQ <- syncCall{kind: kind, call: call}:
	default:
		monitoring.ProgressSyncCounter.WithLabelValues(kind, "dropped").Inc()
		logger.Log.Warn("Progress sync queue full", zap.String("kind", kind), zap.String("lectureId", t.LectureID))
	}
}

// syncLoop 按入队顺序逐个发出上游调用，队列关闭后退出
func (t *ProgressTracker) syncLoop() {
	defer close(t.synced)
	for c := range t.syncQ {
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.CallTimeout)
		err := c.call(ctx)
		cancel()
		t.record(c.kind, err)
	}
}

func (t *ProgressTracker) savePosition(pos float64) {
	token, courseID, lectureID, duration := t.token, t.CourseID, t.LectureID, t.player.Duration()
	t.dispatch("save", func(ctx context.Context) error {
		return t.saver.SaveLectureProgress(ctx, token, courseID, lectureID, pos, duration)
	})
}

func (t *ProgressTracker) markComplete(reason string, watched, duration float64) {
	token, courseID, lectureID := t.token, t.CourseID, t.LectureID
	t.dispatch("complete_"+reason, func(ctx context.Context) error {
		return t.saver.MarkLectureComplete(ctx, token, courseID, lectureID, watched, duration)
	})
}

// record 持久化失败只记录，不重试、不上抛
func (t *ProgressTracker) record(kind string, err error) {
	if err != nil {
		monitoring.ProgressSyncCounter.WithLabelValues(kind, "error").Inc()
		logger.Log.Debug("Progress sync failed",
			zap.String("kind", kind),
			zap.String("lectureId", t.LectureID),
			zap.Error(err))
		return
	}
	monitoring.ProgressSyncCounter.WithLabelValues(kind, "ok").Inc()
}
