package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
	"net/url"
)

type DoubtRepository struct {
	API *apiclient.Client
}

func NewDoubtRepository(api *apiclient.Client) *DoubtRepository {
	return &DoubtRepository{API: api}
}

func (r *DoubtRepository) List(ctx context.Context, token string, query url.Values) ([]model.Doubt, error) {
	var list []model.Doubt
	err := r.API.WithToken(token).Get(ctx, "/doubts", query, &list)
	return list, err
}

func (r *DoubtRepository) Get(ctx context.Context, token, id string) (*model.Doubt, error) {
	var d model.Doubt
	if err := r.API.WithToken(token).Get(ctx, "/doubts/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoubtRepository) Create(ctx context.Context, token string, in model.NewDoubt) (*model.Doubt, error) {
	var d model.Doubt
	if err := r.API.WithToken(token).Post(ctx, "/doubts", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoubtRepository) SendMessage(ctx context.Context, token, doubtID, content, clientMsgID string) (*model.Message, error) {
	var m model.Message
	err := r.API.WithToken(token).Post(ctx, "/doubts/"+url.PathEscape(doubtID)+"/messages", map[string]string{
		"content":     content,
		"clientMsgId": clientMsgID,
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *DoubtRepository) UpdateStatus(ctx context.Context, token, doubtID string, status model.DoubtStatus) (*model.Doubt, error) {
	var d model.Doubt
	err := r.API.WithToken(token).Patch(ctx, "/doubts/"+url.PathEscape(doubtID)+"/status", map[string]string{
		"status": string(status),
	}, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
