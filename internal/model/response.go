package model

// ChatResponse 非流式对话响应
type ChatResponse struct {
	Success   bool        `json:"success"`
	Response  string      `json:"response,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Usage     *TokenUsage `json:"usage,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// SessionResponse 会话创建/查询响应
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// TokenUsage Token 使用统计
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamMessage SSE message 事件的数据体（一个增量文本片段）
type StreamMessage struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
	EventType string `json:"event_type"`
}

// StreamComplete SSE complete 事件的数据体
// FullResponse 携带整次生成累计的完整文本，方便前端直接替换
type StreamComplete struct {
	Text         string      `json:"text"`
	SessionID    string      `json:"session_id"`
	EventType    string      `json:"event_type"`
	FullResponse string      `json:"full_response"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// StreamError SSE error 事件的数据体
// FullResponse 尽力携带出错前已经流出的部分文本
type StreamError struct {
	Error        string `json:"error"`
	SessionID    string `json:"session_id,omitempty"`
	EventType    string `json:"event_type"`
	FullResponse string `json:"full_response,omitempty"`
}
