// Package dashscope 实现 DashScope 原生文本生成 API 的 eino ChatModel 适配器。
//
// 原生接口的流式响应有两种形态：SSE 行（data: {...}）和无分帧的 JSON
// 字节流，按响应 Content-Type 区分。两种形态都经 streaming 包归一化为
// 增量文本与完成事件，再转成 eino 消息流。
package dashscope

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
	defaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"
	generationPath = "/services/aigc/text-generation/generation"
	defaultModel   = "qwen2.5-72b-instruct"

	defaultRequestTimeout = 30 * time.Second
	defaultStreamTimeout  = 300 * time.Second

	readChunkSize = 4096
	maxErrorBody  = 2048
)

// ChatModelConfig DashScope 适配器配置
type ChatModelConfig struct {
	// APIKey 必填，缺失时构造直接失败
	APIKey  string
	Model   string
	BaseURL string

	Temperature       float64
	MaxTokens         int
	TopP              *float64
	TopK              *int
	RepetitionPenalty *float64

	// RequestTimeout 非流式调用超时（默认 30s）
	RequestTimeout time.Duration
	// StreamTimeout 流式调用的上界（默认 300s），超出视为失败而不是静默挂起
	StreamTimeout time.Duration

	// HTTPClient 自定义 HTTP 客户端（测试注入用），默认 http.DefaultClient
	HTTPClient *http.Client
}

// ChatModel DashScope 原生接口的 eino BaseChatModel 实现
type ChatModel struct {
	cfg *ChatModelConfig
	cli *http.Client
}

// NewChatModel 创建 DashScope ChatModel
func NewChatModel(cfg *ChatModelConfig) (*ChatModel, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("dashscope: API key is required (set FUNGLISH_AI_API_KEY or DASHSCOPE_API_KEY)")
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

// Generate 非流式对话
// 返回单条组合消息：完整文本 + 完成原因 + 用量。
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
		return nil, fmt.Errorf("dashscope: read response: %w", err)
	}

	state := streaming.NewState(false)
	events := state.Apply(body)

	// 非流式响应缺失完成原因时按正常结束处理
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

	return msg, nil
}

// Stream 流式对话
// 网络连接由产出协程独占：消费方提前关闭流时，下一次 Send 返回关闭
// 标记，协程退出并释放连接；所有退出路径都经过 defer 关闭响应体。
func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.buildRequest(in, true, opts...)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.StreamTimeout)

	resp, err := m.post(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](8)

	contentType := resp.Header.Get("Content-Type")
	go func() {
		defer cancel()
		defer resp.Body.Close()
		defer sw.Close()

		if strings.Contains(contentType, "text/event-stream") {
			m.consumeSSE(sw, resp.Body)
		} else {
			m.consumeJSON(sw, resp.Body)
		}
	}()

	return sr, nil
}

// post 发送请求并校验状态码，调用方负责关闭响应体
func (m *ChatModel) post(ctx context.Context, payload *chatRequest) (*http.Response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dashscope: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+generationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dashscope: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	log.Debug().
		Str("model", payload.Model).
		Bool("stream", payload.Parameters.Stream).
		Int("messages", len(payload.Input.Messages)).
		Msg("sending dashscope request")

	resp, err := m.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dashscope: request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("dashscope: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	return resp, nil
}

// consumeJSON 消费无分帧 JSON 字节流
// 解析出携带完成原因的单元后即停止读取后续分片。
func (m *ChatModel) consumeJSON(sw *schema.StreamWriter[*schema.Message], body io.Reader) {
	var buf streaming.Buffer
	state := streaming.NewState(true) // JSON 分帧路径启用围栏过滤

	chunk := make([]byte, readChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if done := m.drain(sw, state, &buf); done {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sw.Send(nil, fmt.Errorf("dashscope: stream read: %w", err))
			}
			return
		}
	}
}

// drain 提取缓冲区内已完整的 JSON 单元并下发事件
// 返回 true 表示流应当结束（生成已完成或消费方已关闭）。
func (m *ChatModel) drain(sw *schema.StreamWriter[*schema.Message], state *streaming.State, buf *streaming.Buffer) bool {
	for {
		span, ok := buf.Next()
		if !ok {
			return false
		}

		if !isValidJSON(span) {
			// 配平但不合法的片段：跳过而不是中断整个流
			log.Warn().Str("span", truncate(string(span), 256)).Msg("dashscope: skipping malformed unit")
			continue
		}

		for _, ev := range state.Apply(span) {
			if closed := sw.Send(eventMessage(ev), nil); closed {
				return true
			}
		}
		if state.Completed() {
			return true
		}
	}
}

// consumeSSE 消费 SSE 行分帧的流式响应
func (m *ChatModel) consumeSSE(sw *schema.StreamWriter[*schema.Message], body io.Reader) {
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
					return
				}
				if !isValidJSON(payload) {
					log.Warn().Str("line", truncate(string(payload), 256)).Msg("dashscope: skipping malformed data line")
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
			if !errors.Is(err, io.EOF) {
				sw.Send(nil, fmt.Errorf("dashscope: stream read: %w", err))
			}
			return
		}
	}
}

// eventMessage 把归一化事件转成 eino 消息
func eventMessage(ev streaming.Event) *schema.Message {
	if !ev.Done {
		return &schema.Message{Role: schema.Assistant, Content: ev.Delta}
	}
	return &schema.Message{Role: schema.Assistant, ResponseMeta: completionMeta(ev)}
}

// completionMeta 组装完成事件的响应元数据
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

func isValidJSON(data []byte) bool {
	return sonic.Valid(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
