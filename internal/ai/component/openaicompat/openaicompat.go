// Package openaicompat 实现 OpenAI 兼容 chat completions 接口的 eino
// ChatModel 适配器（DashScope compatible-mode 等）。
//
// 流式响应固定为 SSE 行分帧的 choices[].delta 形态；上游结束时若没有
// 给出完成原因，合成一个正常结束事件。
package openaicompat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"funglish/internal/ai/streaming"
)

const (
	defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	completionPath = "/chat/completions"
	defaultModel   = "qwen2.5-72b-instruct"

	defaultRequestTimeout = 30 * time.Second
	defaultStreamTimeout  = 300 * time.Second

	readChunkSize = 4096
	maxErrorBody  = 2048
)

// ChatModelConfig OpenAI 兼容适配器配置
type ChatModelConfig struct {
	// APIKey 必填，缺失时构造直接失败
	APIKey  string
	Model   string
	BaseURL string

	Temperature      float64
	MaxTokens        int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64

	RequestTimeout time.Duration
	StreamTimeout  time.Duration

	// HTTPClient 自定义 HTTP 客户端（测试注入用）
	HTTPClient *http.Client
}

// ChatModel OpenAI 兼容接口的 eino BaseChatModel 实现
type ChatModel struct {
	cfg *ChatModelConfig
	cli *http.Client
}

// NewChatModel 创建 OpenAI 兼容 ChatModel
func NewChatModel(cfg *ChatModelConfig) (*ChatModel, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openaicompat: API key is required (set FUNGLISH_AI_API_KEY or DASHSCOPE_API_KEY)")
	}

	c := *cfg
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.StreamTimeout == 0 {
		c.StreamTimeout = defaultStreamTimeout
	}

	cli := c.HTTPClient
	if cli == nil {
		cli = http.DefaultClient
	}

	return &ChatModel{cfg: &c, cli: cli}, nil
}

// Generate 非流式对话，返回单条组合消息
func (m *ChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	req := m.buildRequest(in, false, opts...)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: read response: %w", err)
	}

	state := streaming.NewState(false)
	events := state.Apply(body)

	msg := &schema.Message{
		Role:         schema.Assistant,
		Content:      state.Accumulated(),
		ResponseMeta: &schema.ResponseMeta{FinishReason: string(streaming.FinishStop)},
	}
	for _, ev := range events {
		if ev.Done {
			msg.ResponseMeta = completionMeta(ev)
		}
	}
	if usage := parseUsage(body); usage != nil {
		msg.ResponseMeta.Usage = usage
	}

	return msg, nil
}

// Stream 流式对话（SSE 行分帧）
func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(in, true, opts...)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.StreamTimeout)

	resp, err := m.post(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](8)

	go func() {
		defer cancel()
		defer resp.Body.Close()
		defer sw.Close()
		m.consume(sw, resp.Body)
	}()

	return sr, nil
}

// consume 逐行消费 SSE 流
// 上游在 [DONE]/EOF 前没有给出完成原因时，合成一个正常结束事件，
// 保证一次生成总是以完成事件收尾。
func (m *ChatModel) consume(sw *schema.StreamWriter[*schema.Message], body io.Reader) {
	var dec streaming.LineDecoder
	state := streaming.NewState(false)

	chunk := make([]byte, readChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			dec.Write(chunk[:n])
			for {
				payload, done, ok := dec.Next()
				if !ok {
					break
				}
				if done {
					m.finish(sw, state)
					return
				}
				if !sonic.Valid(payload) {
					log.Warn().Str("line", truncate(string(payload), 256)).Msg("openaicompat: skipping malformed data line")
					continue
				}
				for _, ev := range state.Apply(payload) {
					if closed := sw.Send(eventMessage(ev), nil); closed {
						return
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.finish(sw, state)
			} else {
				sw.Send(nil, fmt.Errorf("openaicompat: stream read: %w", err))
			}
			return
		}
	}
}

// finish 流结束时补发合成的完成事件
func (m *ChatModel) finish(sw *schema.StreamWriter[*schema.Message], state *streaming.State) {
	if state.Completed() {
		return
	}
	sw.Send(eventMessage(streaming.Event{Done: true, Reason: streaming.FinishStop}), nil)
}

func (m *ChatModel) post(ctx context.Context, payload *chatRequest) (*http.Response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+completionPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openaicompat: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("model", payload.Model).
		Bool("stream", payload.Stream).
		Int("messages", len(payload.Messages)).
		Msg("sending openai-compatible request")

	resp, err := m.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("openaicompat: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	return resp, nil
}

// parseUsage 提取 OpenAI 形态的 token 用量（prompt/completion/total）
func parseUsage(body []byte) *schema.TokenUsage {
	var envelope struct {
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := sonic.Unmarshal(body, &envelope); err != nil || envelope.Usage == nil {
		return nil
	}
	return &schema.TokenUsage{
		PromptTokens:     envelope.Usage.PromptTokens,
		CompletionTokens: envelope.Usage.CompletionTokens,
		TotalTokens:      envelope.Usage.TotalTokens,
	}
}

func eventMessage(ev streaming.Event) *schema.Message {
	if !ev.Done {
		return &schema.Message{Role: schema.Assistant, Content: ev.Delta}
	}
	return &schema.Message{Role: schema.Assistant, ResponseMeta: completionMeta(ev)}
}

func completionMeta(ev streaming.Event) *schema.ResponseMeta {
	meta := &schema.ResponseMeta{FinishReason: string(ev.Reason)}
	if ev.Usage != nil {
		usage := &schema.TokenUsage{
			PromptTokens: ev.Usage.InputTokens,
			TotalTokens:  ev.Usage.TotalTokens,
		}
		if usage.TotalTokens >= usage.PromptTokens {
			usage.CompletionTokens = usage.TotalTokens - usage.PromptTokens
		}
		meta.Usage = usage
	}
	return meta
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
