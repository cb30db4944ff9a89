package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"funglish/internal/model"
	"funglish/internal/session"
)

// SessionHandler 学习会话处理器
type SessionHandler struct {
	store *session.Store
}

// NewSessionHandler 创建学习会话处理器
func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Start 开始新的学习会话
// @Summary      开始新的学习会话
// @Tags         会话
// @Produce      json
// @Success      200  {object}  model.SessionResponse
// @Router       /api/v1/session [post]
func (h *SessionHandler) Start(c *gin.Context) {
	sess := h.store.Create("")

	c.JSON(http.StatusOK, model.SessionResponse{
		Success:   true,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Message:   "会话创建成功",
	})
}

// Info 获取会话信息
// @Summary      获取会话信息
// @Tags         会话
// @Produce      json
// @Param        id   path      string  true  "会话ID"
// @Success      200  {object}  model.SessionResponse
// @Router       /api/v1/session/{id} [get]
func (h *SessionHandler) Info(c *gin.Context) {
	sess, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, model.SessionResponse{
			Success: false,
			Error:   "session not found",
		})
		return
	}

	c.JSON(http.StatusOK, model.SessionResponse{
		Success:   true,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
	})
}
