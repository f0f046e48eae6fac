package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

type NotificationRepository struct {
	API *apiclient.Client
}

func NewNotificationRepository(api *apiclient.Client) *NotificationRepository {
	return &NotificationRepository{API: api}
}

func (r *NotificationRepository) List(ctx context.Context, token string) ([]model.Notification, error) {
	var list []model.Notification
	err := r.API.WithToken(token).Get(ctx, "/notifications", nil, &list)
	return list, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, token, id string) error {
	return r.API.WithToken(token).Patch(ctx, "/notifications/"+url.PathEscape(id)+"/read", struct{}{}, nil)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, token string) error {
	return r.API.WithToken(token).Post(ctx, "/notifications/read-all", struct{}{}, nil)
}

func (r *NotificationRepository) Delete(ctx context.Context, token, id string) error {
	return r.API.WithToken(token).Delete(ctx, "/notifications/"+url.PathEscape(id), nil)
}

func (r *NotificationRepository) GetSettings(ctx context.Context, token string) (*model.NotificationSettings, error) {
	var s model.NotificationSettings
	if err := r.API.WithToken(token).Get(ctx, "/settings/notifications", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *NotificationRepository) UpdateSettings(ctx context.Context, token string, s model.NotificationSettings) error {
	return r.API.WithToken(token).Put(ctx, "/settings/notifications", s, nil)
}
