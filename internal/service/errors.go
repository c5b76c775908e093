package service

import (
	"errors"
	"strings"
)

var (
	// ErrQuotaExceeded 表示用户当前周期的额度已用完。
	ErrQuotaExceeded = errors.New("AI usage quota exceeded")
	// ErrRateLimited 表示 Provider 在当前窗口内的调用次数已达上限。
	ErrRateLimited = errors.New("provider rate limit exceeded, try again later")
	// ErrRecordFailed 表示配额或审计记录持久化失败。
	ErrRecordFailed = errors.New("failed to record AI usage")
	// ErrFeatureDisabled 表示所需的外部组件（Elasticsearch、MinIO）未启用。
	ErrFeatureDisabled = errors.New("feature is not enabled on this server")
	// ErrUserExists 表示注册的用户名已被占用。
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError 列出缺失的必填字段和取值非法的字段（JSON 字段名）。
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "invalid request"
	}
	return strings.Join(parts, "; ")
}
