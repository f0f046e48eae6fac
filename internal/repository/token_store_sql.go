package repository

import (
	"context"
	"errors"
	"learning_portal/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SQLTokenStore struct {
	DB *gorm.DB
}

func NewSQLTokenStore(db *gorm.DB) *SQLTokenStore {
	return &SQLTokenStore{DB: db}
}

func (s *SQLTokenStore) Get(ctx context.Context, deviceID string) (string, error) {
	var row model.DeviceToken
	err := s.DB.WithContext(ctx).Where("device_id = ?", deviceID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	if row.ExpiresAt != nil && !time.Now().Before(*row.ExpiresAt) {
		s.DB.WithContext(ctx).Delete(&model.DeviceToken{}, "device_id = ?", deviceID)
		return "", ErrTokenNotFound
	}
	return row.Sealed, nil
}

func (s *SQLTokenStore) Set(ctx context.Context, deviceID, sealed string, expiresAt time.Time) error {
	row := model.DeviceToken{DeviceID: deviceID, Sealed: sealed}
	if !expiresAt.IsZero() {
		row.ExpiresAt = &expiresAt
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sealed", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQLTokenStore) Delete(ctx context.Context, deviceID string) error {
	return s.DB.WithContext(ctx).Delete(&model.DeviceToken{}, "device_id = ?", deviceID).Error
}

func (s *SQLTokenStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&model.DeviceToken{})
	return res.RowsAffected, res.Error
}
