package model

// ChatRequest 对话请求
// Message 为空时流式接口返回 error 事件而不是 400，与前端约定保持一致
type ChatRequest struct {
	Message   string       `json:"message"`
	SessionID string       `json:"session_id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	Options   *ChatOptions `json:"options,omitempty"`
}

// ChatOptions 单次对话的生成参数覆盖
type ChatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}
