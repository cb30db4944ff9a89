package id

import (
	"strings"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// NewUser 生成带 user_ 前缀的用户ID（前端未提供时使用）
func NewUser() string {
	return "user_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
