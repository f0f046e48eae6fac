package repository

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/pkg/apiclient"
)

type AuthRepository struct {
	API *apiclient.Client
}

func NewAuthRepository(api *apiclient.Client) *AuthRepository {
	return &AuthRepository{API: api}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (r *AuthRepository) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := r.API.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AuthRepository) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := r.API.WithToken(token).Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
