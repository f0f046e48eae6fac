package service

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/logger"

	"go.uber.org/zap"
)

// PracticeTestAPI 练习测验上游接口
type PracticeTestAPI interface {
	CreatePracticeTest(ctx context.Context, token string, cfg model.PracticeTestConfig) (*model.PracticeTest, error)
	StartPracticeTest(ctx context.Context, token, testID string) (*model.Attempt, error)
}

type PracticeTestService struct {
	API PracticeTestAPI
}

func NewPracticeTestService(api PracticeTestAPI) *PracticeTestService {
	return &PracticeTestService{API: api}
}

// Create 校验后创建练习并立即开始作答。
// 开始失败时仍返回已创建的测验以及错误。
func (s *PracticeTestService) Create(ctx context.Context, sess *model.Session, cfg model.PracticeTestConfig, requireChapters bool) (*model.PracticeTestStart, error) {
	if err := ValidatePracticeConfig(cfg, requireChapters); err != nil {
		return nil, err
	}
	if cfg.Chapters == nil {
		cfg.Chapters = []string{}
	}

	test, err := s.API.CreatePracticeTest(ctx, sess.Token, cfg)
	if err != nil {
		return nil, err
	}
	out := &model.PracticeTestStart{Test: test}

	attempt, err := s.API.StartPracticeTest(ctx, sess.Token, test.ID)
	if err != nil {
		logger.Log.Warn("Practice test created but could not be started",
			zap.String("testId", test.ID), zap.Error(err))
		return out, err
	}
	out.Attempt = attempt
	return out, nil
}

// Redistribute 表单拖动难度滑块
func (s *PracticeTestService) Redistribute(d model.Difficulty, level model.DifficultyLevel, value int) (model.Difficulty, error) {
	return RedistributeDifficulty(d, level, value)
}
