package util

import (
	"strconv"
	"time"
)

// FormatFloatID JSON 数字 ID 转字符串
func FormatFloatID(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseDate 解析 yyyy-mm-dd，空串返回零值
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateFormat, s, time.Local)
}
