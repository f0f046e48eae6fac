package util

import (
	"learning_portal/internal/model"

	"github.com/gin-gonic/gin"
)

// DeviceID 取请求头中的设备标识；websocket 无法自定义请求头，回退到 device 查询参数
func DeviceID(c *gin.Context) string {
	if id := c.GetHeader(HeaderDeviceID); id != "" {
		return id
	}
	return c.Query("device")
}

func GetSession(c *gin.Context) *model.Session {
	if v, ok := c.Get(ContextSession); ok {
		if sess, ok := v.(*model.Session); ok {
			return sess
		}
	}
	return nil
}
