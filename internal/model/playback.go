package model

// PlaybackSession 视频页挂载后返回给前端的播放会话
type PlaybackSession struct {
	SessionID string `json:"sessionId"`
	CourseID  string `json:"courseId"`
	LectureID string `json:"lectureId"`
	// VideoID 平台视频 ID；直链视频为空
	VideoID  string  `json:"videoId,omitempty"`
	VideoURL string  `json:"videoUrl"`
	ResumeAt float64 `json:"resumeAt"`
	Duration float64 `json:"duration"`
}

type PlaybackStart struct {
	CourseID  string  `json:"courseId" binding:"required"`
	LectureID string  `json:"lectureId" binding:"required"`
	VideoURL  string  `json:"videoUrl" binding:"required"`
	Duration  float64 `json:"duration"`
}

// PlaybackReport 前端定期上报的播放器状态
type PlaybackReport struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}
