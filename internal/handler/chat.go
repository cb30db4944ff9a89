package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"funglish/internal/ai"
	"funglish/internal/model"
	"funglish/internal/session"
	"funglish/internal/sse"
)

// 前端约定的兜底文案
const (
	defaultReply  = "我收到你的消息了！让我想想怎么用英语回答你..."
	fallbackReply = "抱歉，AI助手暂时无法响应。请稍后再试。"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	agent *ai.Agent
	store *session.Store
}

// NewChatHandler 创建对话处理器
func NewChatHandler(agent *ai.Agent, store *session.Store) *ChatHandler {
	return &ChatHandler{agent: agent, store: store}
}

// ChatStream 与英语导师对话（流式响应）
// @Summary      与英语导师对话（流式响应）
// @Description  SSE 事件流，message 事件携带增量文本，complete 事件携带完整回复
// @Tags         对话
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  model.ChatRequest  true  "对话请求"
// @Success      200
// @Router       /api/v1/chat/stream [post]
func (h *ChatHandler) ChatStream(c *gin.Context) {
	sse.WriteHeader(c.Writer.Header())
	w := sse.NewWriter(c.Writer)

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		w.Send(sse.EventError, model.StreamError{Error: "请求格式错误", EventType: "error"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		w.Send(sse.EventError, model.StreamError{Error: "请输入消息", EventType: "error"})
		return
	}

	sess := h.store.GetOrCreate(req.SessionID, req.UserID)

	log.Info().
		Str("session_id", sess.ID).
		Str("user_id", sess.UserID).
		Str("message", truncate(message, 50)).
		Msg("chat stream started")

	h.store.SetLevel(sess.ID, h.agent.AssessLevel(message))

	reader, err := h.agent.ChatStream(c.Request.Context(), sess.History, message, req.Options)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("chat stream failed to start")
		w.Send(sse.EventError, model.StreamError{
			Error:        "处理响应时出错: " + err.Error(),
			SessionID:    sess.ID,
			EventType:    "error",
			FullResponse: fallbackReply,
		})
		return
	}
	defer reader.Close()

	var (
		full     strings.Builder
		reason   string
		usage    *model.TokenUsage
		complete bool
	)

	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error().Err(err).Str("session_id", sess.ID).Msg("chat stream broken")
			partial := full.String()
			if partial == "" {
				partial = fallbackReply
			}
			w.Send(sse.EventError, model.StreamError{
				Error:        "处理响应时出错: " + err.Error(),
				SessionID:    sess.ID,
				EventType:    "error",
				FullResponse: partial,
			})
			return
		}

		if msg.Content != "" {
			full.WriteString(msg.Content)
			if werr := w.Send(sse.EventMessage, model.StreamMessage{
				Text:      msg.Content,
				SessionID: sess.ID,
				EventType: "chunk",
			}); werr != nil {
				// 客户端断开，defer 的 Close 会释放上游连接
				log.Debug().Err(werr).Str("session_id", sess.ID).Msg("client disconnected")
				return
			}
		}

		if meta := msg.ResponseMeta; meta != nil && meta.FinishReason != "" {
			complete = true
			reason = meta.FinishReason
			if u := meta.Usage; u != nil {
				usage = &model.TokenUsage{
					PromptTokens:     u.PromptTokens,
					CompletionTokens: u.CompletionTokens,
					TotalTokens:      u.TotalTokens,
				}
			}
		}
	}

	reply := full.String()
	if reply == "" {
		// 模型一个字没给，用兜底回复收尾
		reply = defaultReply
		reason = ""
	}
	if !complete && full.Len() > 0 {
		log.Warn().Str("session_id", sess.ID).Msg("stream ended without completion event")
	}

	if werr := w.Send(sse.EventComplete, model.StreamComplete{
		Text:         reply,
		SessionID:    sess.ID,
		EventType:    "complete",
		FullResponse: reply,
		FinishReason: reason,
		Usage:        usage,
	}); werr != nil {
		return
	}

	h.store.AppendTurn(sess.ID, message, reply)
}

// ChatDirect 与英语导师对话（直接响应，用于测试）
// @Summary      与英语导师对话（直接响应）
// @Tags         对话
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChatRequest  true  "对话请求"
// @Success      200      {object}  model.ChatResponse
// @Router       /api/v1/chat/direct [post]
func (h *ChatHandler) ChatDirect(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, model.ChatResponse{Success: false, Error: "请求格式错误"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusOK, model.ChatResponse{Success: false, Error: "请输入消息"})
		return
	}

	sess := h.store.GetOrCreate(req.SessionID, req.UserID)
	h.store.SetLevel(sess.ID, h.agent.AssessLevel(message))

	result, err := h.agent.Chat(c.Request.Context(), sess.History, message, req.Options)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("chat failed")
		c.JSON(http.StatusOK, model.ChatResponse{
			Success:   false,
			Error:     "AI处理错误: " + err.Error(),
			SessionID: sess.ID,
			UserID:    sess.UserID,
		})
		return
	}

	h.store.AppendTurn(sess.ID, message, result.Content)

	c.JSON(http.StatusOK, model.ChatResponse{
		Success:   true,
		Response:  result.Content,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Usage:     result.Usage,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
