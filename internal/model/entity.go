package model

import "time"

// Message 对话消息
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
