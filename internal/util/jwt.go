package util

import (
	"errors"
	"learning_portal/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 上游令牌里本端关心的字段；签名由上游校验，本端只读
type Claims struct {
	UserID string         `json:"-"`
	Role   model.UserRole `json:"role"`
	Email  string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type rawClaims struct {
	UID    interface{}    `json:"id"`
	UserID interface{}    `json:"userId"`
	Role   model.UserRole `json:"role"`
	Email  string         `json:"email"`
	jwt.RegisteredClaims
}

// ParseTokenClaims 不验签解析令牌，用于读取用户与过期时间
func ParseTokenClaims(token string) (*Claims, error) {
	var rc rawClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, err
	}
	claims := &Claims{Role: rc.Role, Email: rc.Email, RegisteredClaims: rc.RegisteredClaims}
	for _, v := range []interface{}{rc.UserID, rc.UID} {
		if s := idString(v); s != "" {
			claims.UserID = s
			break
		}
	}
	if claims.UserID == "" {
		claims.UserID = rc.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

// Expired 无 exp 的令牌视为不过期
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time)
}

func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return FormatFloatID(t)
	}
	return ""
}
