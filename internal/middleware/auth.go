package middleware

import (
	"context"
	"learning_portal/internal/model"
	"learning_portal/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionResolver 根据设备标识恢复登录态
type SessionResolver interface {
	Session(ctx context.Context, deviceID string) (*model.Session, error)
}

// AuthMiddleware 要求设备已登录，并把会话放入上下文
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := resolver.Session(c.Request.Context(), util.DeviceID(c))
		if err != nil {
			util.HandleError(c, err)
			c.Abort()
			return
		}
		c.Set(util.ContextSession, sess)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := util.GetSession(c)
		if sess == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有所有教师权限
			if sess.Role == model.Admin || sess.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
