package model

type DurationMode string

const (
	DurationTimed       DurationMode = "timed"
	DurationUntimed     DurationMode = "untimed"
	DurationPerQuestion DurationMode = "per_question"
)

type DifficultyLevel string

const (
	Easy   DifficultyLevel = "easy"
	Medium DifficultyLevel = "medium"
	Hard   DifficultyLevel = "hard"
)

// Difficulty 各难度题目百分比
type Difficulty struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (d Difficulty) Sum() int { return d.Easy + d.Medium + d.Hard }

type Marking struct {
	Correct   float64 `json:"correct"`
	Incorrect float64 `json:"incorrect"`
}

// PracticeTestConfig 自定义练习的创建请求体
type PracticeTestConfig struct {
	Subjects        []string     `json:"subjects"`
	Chapters        []string     `json:"chapters"`
	QuestionCount   int          `json:"questionCount"`
	DurationMode    DurationMode `json:"durationMode"`
	DurationMinutes int          `json:"duration"`
	Difficulty      Difficulty   `json:"difficulty"`
	Marking         Marking      `json:"marking"`
}

// swagger:model PracticeTest
type PracticeTest struct {
	ID string `json:"id"`
	PracticeTestConfig
}

type PracticeTestStart struct {
	Test    *PracticeTest `json:"test"`
	Attempt *Attempt      `json:"attempt,omitempty"`
}
