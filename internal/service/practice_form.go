package service

import (
	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"math"
)

const (
	MinQuestionCount = 5
	MaxQuestionCount = 200
	MinDuration      = 5
	MaxDuration      = 300
)

// PracticeForm 自定义练习表单状态
type PracticeForm struct {
	Config model.PracticeTestConfig `json:"config"`
	// RequireChapters 开启后必须至少选择一个章节
	RequireChapters bool `json:"requireChapters"`
}

func NewPracticeForm() *PracticeForm {
	return &PracticeForm{
		Config: model.PracticeTestConfig{
			Subjects:        []string{},
			Chapters:        []string{},
			QuestionCount:   30,
			DurationMode:    model.DurationTimed,
			DurationMinutes: 60,
			Difficulty:      model.Difficulty{Easy: 30, Medium: 50, Hard: 20},
			Marking:         model.Marking{Correct: 4, Incorrect: -1},
		},
	}
}

func toggle(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

func (f *PracticeForm) ToggleSubject(subject string) {
	f.Config.Subjects = toggle(f.Config.Subjects, subject)
}

func (f *PracticeForm) ToggleChapter(chapter string) {
	f.Config.Chapters = toggle(f.Config.Chapters, chapter)
}

func (f *PracticeForm) SetQuestionCount(n int) {
	f.Config.QuestionCount = n
}

func (f *PracticeForm) SetDuration(mode model.DurationMode, minutes int) {
	f.Config.DurationMode = mode
	f.Config.DurationMinutes = minutes
}

func (f *PracticeForm) SetMarking(correct, incorrect float64) {
	f.Config.Marking = model.Marking{Correct: correct, Incorrect: incorrect}
}

// SetDifficulty 设置某一难度的百分比，剩余部分按另外两项当前比例分配。
// 各项独立四舍五入，总和只保证在 100±1 之内。
func (f *PracticeForm) SetDifficulty(level model.DifficultyLevel, value int) error {
	d, err := RedistributeDifficulty(f.Config.Difficulty, level, value)
	if err != nil {
		return err
	}
	f.Config.Difficulty = d
	return nil
}

func RedistributeDifficulty(d model.Difficulty, level model.DifficultyLevel, value int) (model.Difficulty, error) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	var a, b *int
	out := d
	switch level {
	case model.Easy:
		out.Easy = value
		a, b = &out.Medium, &out.Hard
	case model.Medium:
		out.Medium = value
		a, b = &out.Easy, &out.Hard
	case model.Hard:
		out.Hard = value
		a, b = &out.Easy, &out.Medium
	default:
		return d, util.Invalid("level", "unknown difficulty level %q", level)
	}

	remaining := float64(100 - value)
	total := float64(*a + *b)
	if total == 0 {
		*a = int(math.Round(remaining / 2))
		*b = int(math.Round(remaining / 2))
		return out, nil
	}
	ra, rb := float64(*a)/total, float64(*b)/total
	*a = int(math.Round(remaining * ra))
	*b = int(math.Round(remaining * rb))
	return out, nil
}

// Validate 创建前校验，返回第一条失败原因
func (f *PracticeForm) Validate() error {
	return ValidatePracticeConfig(f.Config, f.RequireChapters)
}

func ValidatePracticeConfig(c model.PracticeTestConfig, requireChapters bool) error {
	if len(c.Subjects) == 0 {
		return util.Invalid("subjects", "select at least one subject")
	}
	if requireChapters && len(c.Chapters) == 0 {
		return util.Invalid("chapters", "select at least one chapter")
	}
	if c.QuestionCount < MinQuestionCount || c.QuestionCount > MaxQuestionCount {
		return util.Invalid("questionCount", "question count must be between %d and %d", MinQuestionCount, MaxQuestionCount)
	}
	switch c.DurationMode {
	case model.DurationTimed:
		if c.DurationMinutes < MinDuration || c.DurationMinutes > MaxDuration {
			return util.Invalid("duration", "duration must be between %d and %d minutes", MinDuration, MaxDuration)
		}
	case model.DurationUntimed, model.DurationPerQuestion:
	default:
		return util.Invalid("durationMode", "unknown duration mode %q", c.DurationMode)
	}
	if sum := c.Difficulty.Sum(); sum < 99 || sum > 101 {
		return util.Invalid("difficulty", "difficulty distribution must add up to 100%% (got %d%%)", sum)
	}
	if c.Marking.Correct <= 0 {
		return util.Invalid("marking", "marks for a correct answer must be positive")
	}
	if c.Marking.Incorrect > 0 {
		return util.Invalid("marking", "marks for an incorrect answer must be zero or negative")
	}
	return nil
}
