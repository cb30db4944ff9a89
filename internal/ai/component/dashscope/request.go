package dashscope

import (
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatRequest DashScope 原生文本生成 API 的请求体
type chatRequest struct {
	Model      string     `json:"model"`
	Input      chatInput  `json:"input"`
	Parameters parameters `json:"parameters"`
}

type chatInput struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// parameters 生成参数
// 可选参数用指针，未设置时不出现在请求体里
type parameters struct {
	Temperature       float64  `json:"temperature"`
	MaxTokens         int      `json:"max_tokens"`
	TopP              *float64 `json:"top_p,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
	Stream            bool     `json:"stream,omitempty"`
}

// buildMessages 把 eino 消息列表转换为 DashScope 消息格式
// 系统指令保持 system 角色；其余角色归一化为 user/assistant；
// 多段内容用换行拼接，非文本段跳过；拼接后为空的消息整条丢弃。
func buildMessages(in []*schema.Message) []chatMessage {
	messages := make([]chatMessage, 0, len(in))

	for _, msg := range in {
		if msg == nil {
			continue
		}

		content := messageText(msg)
		if content == "" {
			continue
		}

		var role string
		switch msg.Role {
		case schema.System:
			role = "system"
		case schema.User:
			role = "user"
		default:
			role = "assistant"
		}

		messages = append(messages, chatMessage{Role: role, Content: content})
	}

	return messages
}

// messageText 提取消息的文本内容
func messageText(msg *schema.Message) string {
	if len(msg.MultiContent) == 0 {
		return msg.Content
	}

	parts := make([]string, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// buildRequest 组装请求体，按单次调用的选项覆盖默认参数
func (m *ChatModel) buildRequest(in []*schema.Message, stream bool, opts ...model.Option) *chatRequest {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	req := &chatRequest{
		Model: m.cfg.Model,
		Input: chatInput{Messages: buildMessages(in)},
		Parameters: parameters{
			Temperature:       m.cfg.Temperature,
			MaxTokens:         m.cfg.MaxTokens,
			TopP:              m.cfg.TopP,
			TopK:              m.cfg.TopK,
			RepetitionPenalty: m.cfg.RepetitionPenalty,
			Stream:            stream,
		},
	}

	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Parameters.Temperature = float64(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.Parameters.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		topP := float64(*options.TopP)
		req.Parameters.TopP = &topP
	}

	return req
}
