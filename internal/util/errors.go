package util

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrSessionExpired   = errors.New("session expired")
	ErrMissingDevice    = errors.New("missing device id")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTrackerNotFound  = errors.New("playback session not found")
	ErrRoomNotOpen      = errors.New("doubt room is not open")
	ErrNotFound         = errors.New("not found")
)

// ValidationError 表单校验失败，对应前端弹窗提示
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
