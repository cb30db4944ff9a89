package streaming

import "strings"

// FinishReason 归一化的完成原因（闭集）
type FinishReason string

const (
	// FinishNone 单元不携带完成原因（非终止单元）
	FinishNone FinishReason = ""
	// FinishStop 正常结束
	FinishStop FinishReason = "stop"
	// FinishMaxTokens 达到输出 token 上限
	FinishMaxTokens FinishReason = "max_tokens"
	// FinishSafety 命中内容安全过滤
	FinishSafety FinishReason = "safety"
)

// 厂商完成原因词表（小写）
// DashScope 原生流在非终止单元里发字符串 "null"，按无完成原因处理
var finishReasons = map[string]FinishReason{
	"null":           FinishNone,
	"stop":           FinishStop,
	"length":         FinishMaxTokens,
	"max_tokens":     FinishMaxTokens,
	"content_filter": FinishSafety,
	"function_call":  FinishStop,
	"tool_calls":     FinishStop,
}

// MapFinishReason 把厂商完成原因字符串映射到归一化闭集
// 大小写不敏感；未知字符串映射为 FinishStop；空串映射为 FinishNone
func MapFinishReason(vendor string) FinishReason {
	if vendor == "" {
		return FinishNone
	}
	if reason, ok := finishReasons[strings.ToLower(vendor)]; ok {
		return reason
	}
	return FinishStop
}
