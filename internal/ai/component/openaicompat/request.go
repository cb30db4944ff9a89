package openaicompat

import (
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatRequest OpenAI 兼容 chat completions 请求体
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             *float64      `json:"top_p,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	Stream           bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildMessages 与 dashscope 适配器相同的消息归一化规则：
// system 指令保留，其余角色折叠为 user/assistant，空消息丢弃。
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

func (m *ChatModel) buildRequest(in []*schema.Message, stream bool, opts ...model.Option) *chatRequest {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	req := &chatRequest{
		Model:            m.cfg.Model,
		Messages:         buildMessages(in),
		Temperature:      m.cfg.Temperature,
		MaxTokens:        m.cfg.MaxTokens,
		TopP:             m.cfg.TopP,
		FrequencyPenalty: m.cfg.FrequencyPenalty,
		PresencePenalty:  m.cfg.PresencePenalty,
		Stream:           stream,
	}

	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = float64(*options.Temperature)
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if options.TopP != nil {
		topP := float64(*options.TopP)
		req.TopP = &topP
	}

	return req
}
