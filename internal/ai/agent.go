package ai

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"funglish/internal/ai/component"
	"funglish/internal/config"
	"funglish/internal/model"
)

// defaultSystemPrompt 默认助教人设（专为初中生设计的英语学习伙伴）
const defaultSystemPrompt = `你是 Emma，一位专为初中生设计的英语学习伙伴。通过有趣的对话形式教授英语，自然融入语法和时态教学。

要求：
1. 用简单、友好的语气交流，中英文混合回复，英文部分配中文解释
2. 针对学生的英语错误温和地纠正，给出正确表达和简短的语法说明
3. 每次回复控制在 200 字以内，多用提问引导学生继续用英语表达
4. 根据学生水平调整用词难度，初学者多用基础词汇`

// Agent 英语学习助教
// 职责: 封装 ChatModel，组装 system prompt + 历史 + 新消息，跟踪学生水平
type Agent struct {
	cfg        *config.AIConfig
	chatModel  einomodel.BaseChatModel
	prompt     string
	maxHistory int
}

// ChatResult 同步对话结果
type ChatResult struct {
	Content      string
	FinishReason string
	Usage        *model.TokenUsage
}

// NewAgent 创建助教
func NewAgent(ctx context.Context, cfg *config.Config) (*Agent, error) {
	cm, err := component.NewChatModel(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	prompt := cfg.Tutor.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}

	log.Info().
		Str("provider", cfg.AI.Provider).
		Str("model", cfg.AI.Model).
		Int("max_history", cfg.Session.MaxHistory).
		Msg("english tutor agent initialized")

	return &Agent{
		cfg:        &cfg.AI,
		chatModel:  cm,
		prompt:     prompt,
		maxHistory: cfg.Session.MaxHistory,
	}, nil
}

// NewAgentWithModel 使用给定 ChatModel 创建助教（测试注入用）
func NewAgentWithModel(cm einomodel.BaseChatModel, prompt string, maxHistory int) *Agent {
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return &Agent{chatModel: cm, prompt: prompt, maxHistory: maxHistory}
}

// Chat 同步对话
func (a *Agent) Chat(ctx context.Context, history []model.Message, message string, opts *model.ChatOptions) (*ChatResult, error) {
	msg, err := a.chatModel.Generate(ctx, a.buildMessages(history, message), buildOptions(opts)...)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{Content: msg.Content}
	if msg.ResponseMeta != nil {
		result.FinishReason = msg.ResponseMeta.FinishReason
		if u := msg.ResponseMeta.Usage; u != nil {
			result.Usage = &model.TokenUsage{
				PromptTokens:     u.PromptTokens,
				CompletionTokens: u.CompletionTokens,
				TotalTokens:      u.TotalTokens,
			}
		}
	}
	return result, nil
}

// ChatStream 流式对话
// 返回的 StreamReader 由调用方 Close，关闭会同时释放上游连接。
func (a *Agent) ChatStream(ctx context.Context, history []model.Message, message string, opts *model.ChatOptions) (*schema.StreamReader[*schema.Message], error) {
	return a.chatModel.Stream(ctx, a.buildMessages(history, message), buildOptions(opts)...)
}

// AssessLevel 根据学生回答评估水平
// 简化实现：按回答长度调整，后续可换成真正的水平分析。
func (a *Agent) AssessLevel(studentResponse string) string {
	if len(studentResponse) > 50 {
		return "intermediate"
	}
	return "beginner"
}

// buildMessages 组装提示词: system prompt + 截断后的历史 + 本轮消息
func (a *Agent) buildMessages(history []model.Message, message string) []*schema.Message {
	if a.maxHistory > 0 && len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(a.prompt))
	for _, h := range history {
		switch h.Role {
		case model.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(h.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(h.Content))
		}
	}
	return append(msgs, schema.UserMessage(message))
}

// buildOptions 单次请求级参数覆盖
func buildOptions(opts *model.ChatOptions) []einomodel.Option {
	if opts == nil {
		return nil
	}

	var out []einomodel.Option
	if opts.Temperature != nil {
		out = append(out, einomodel.WithTemperature(float32(*opts.Temperature)))
	}
	if opts.MaxTokens != nil {
		out = append(out, einomodel.WithMaxTokens(*opts.MaxTokens))
	}
	if opts.TopP != nil {
		out = append(out, einomodel.WithTopP(float32(*opts.TopP)))
	}
	return out
}
