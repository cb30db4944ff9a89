package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	Session SessionConfig `mapstructure:"session"`
	Tutor   TutorConfig   `mapstructure:"tutor"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StaticDir    string        `mapstructure:"static_dir"` // 前端静态文件目录（可选）
}

// AIConfig AI 服务配置
type AIConfig struct {
	Provider       string          `mapstructure:"provider"` // dashscope/dashscope-compat/openai/azure/ark
	APIKey         string          `mapstructure:"api_key"`
	Model          string          `mapstructure:"model"`
	BaseURL        string          `mapstructure:"base_url"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"` // 非流式请求超时
	StreamTimeout  time.Duration   `mapstructure:"stream_timeout"`  // 流式请求超时
	Options        AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
// 可选参数使用指针：未配置的参数不会出现在发往厂商的请求中
type AIOptionsConfig struct {
	Temperature       float64  `mapstructure:"temperature"`
	MaxTokens         int      `mapstructure:"max_tokens"`
	TopP              *float64 `mapstructure:"top_p"`
	TopK              *int     `mapstructure:"top_k"`
	RepetitionPenalty *float64 `mapstructure:"repetition_penalty"`
	FrequencyPenalty  *float64 `mapstructure:"frequency_penalty"`
	PresencePenalty   *float64 `mapstructure:"presence_penalty"`
}

// SessionConfig 会话配置
type SessionConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`         // 会话过期时间
	MaxHistory int           `mapstructure:"max_history"` // 历史消息条数上限
}

// TutorConfig 英语导师配置
type TutorConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"` // 自定义系统提示词（可选，默认内置）
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Session.MaxHistory < 0 {
		return errors.New("session.max_history must be >= 0")
	}

	return nil
}
