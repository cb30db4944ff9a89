// Package session 提供内存学习会话存储。
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"funglish/internal/config"
	"funglish/internal/model"
	"funglish/internal/pkg/id"
)

// localPrefix 前端本地生成的临时会话 ID 前缀，视为不存在的会话
const localPrefix = "local_"

// Session 学习会话
type Session struct {
	ID        string
	UserID    string
	Level     string
	History   []model.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store 内存会话存储
// 过期采用惰性清理：读取时检查 TTL，过期即删除。
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	ttl        time.Duration
	maxHistory int

	now func() time.Time // 测试注入用
}

// NewStore 创建会话存储
func NewStore(cfg *config.SessionConfig) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		ttl:        cfg.TTL,
		maxHistory: cfg.MaxHistory,
		now:        time.Now,
	}
}

// Create 创建新会话
// userID 为空时自动分配一个。
func (s *Store) Create(userID string) *Session {
	if userID == "" {
		userID = id.NewUser()
	}

	now := s.now()
	sess := &Session{
		ID:        id.New(),
		UserID:    userID,
		Level:     "beginner",
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log.Info().Str("session_id", sess.ID).Str("user_id", sess.UserID).Msg("session created")
	return sess
}

// GetOrCreate 按 ID 取会话，取不到则新建
// 空 ID 和 local_ 前缀的本地 ID 都视为新会话。
func (s *Store) GetOrCreate(sessionID, userID string) *Session {
	if sessionID == "" || strings.HasPrefix(sessionID, localPrefix) {
		return s.Create(userID)
	}

	if sess, ok := s.Get(sessionID); ok {
		return sess
	}

	log.Warn().Str("session_id", sessionID).Msg("session not found, creating a new one")
	return s.Create(userID)
}

// Get 按 ID 取会话，过期的会话按不存在处理
func (s *Store) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, sessionID)
		log.Debug().Str("session_id", sessionID).Msg("session expired")
		return nil, false
	}

	copied := *sess
	copied.History = append([]model.Message(nil), sess.History...)
	return &copied, true
}

// AppendTurn 追加一轮对话（用户消息 + 助手回复）
// 历史超过上限时丢弃最早的消息。
func (s *Store) AppendTurn(sessionID, userMessage, assistantReply string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	sess.History = append(sess.History,
		model.Message{Role: model.RoleUser, Content: userMessage, Timestamp: now},
		model.Message{Role: model.RoleAssistant, Content: assistantReply, Timestamp: now},
	)
	if s.maxHistory > 0 && len(sess.History) > s.maxHistory {
		sess.History = sess.History[len(sess.History)-s.maxHistory:]
	}
	sess.UpdatedAt = now
}

// SetLevel 更新会话的学生水平
func (s *Store) SetLevel(sessionID, level string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.Level = level
	}
}

// Len 当前会话数（含未清理的过期会话）
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
