package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"funglish/internal/ai/component/dashscope"
	"funglish/internal/ai/component/openaicompat"
	"funglish/internal/config"
)

// NewChatModel 创建 ChatModel
// 支持多种 Provider: dashscope, dashscope-compat, openai, azure, ark
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case "dashscope", "":
		return newDashScopeChatModel(cfg)
	case "dashscope-compat":
		return newCompatChatModel(cfg)
	case "openai":
		return newOpenAIChatModel(ctx, cfg)
	case "azure":
		return newAzureChatModel(ctx, cfg)
	case "ark":
		return newArkChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// newDashScopeChatModel 创建 DashScope 原生协议 ChatModel
func newDashScopeChatModel(cfg *config.AIConfig) (model.BaseChatModel, error) {
	modelCfg := &dashscope.ChatModelConfig{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		Temperature:       cfg.Options.Temperature,
		MaxTokens:         cfg.Options.MaxTokens,
		TopP:              cfg.Options.TopP,
		TopK:              cfg.Options.TopK,
		RepetitionPenalty: cfg.Options.RepetitionPenalty,
		RequestTimeout:    cfg.RequestTimeout,
		StreamTimeout:     cfg.StreamTimeout,
	}

	return dashscope.NewChatModel(modelCfg)
}

// newCompatChatModel 创建 OpenAI 兼容协议 ChatModel（DashScope compatible-mode 等）
func newCompatChatModel(cfg *config.AIConfig) (model.BaseChatModel, error) {
	modelCfg := &openaicompat.ChatModelConfig{
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		BaseURL:          cfg.BaseURL,
		Temperature:      cfg.Options.Temperature,
		MaxTokens:        cfg.Options.MaxTokens,
		TopP:             cfg.Options.TopP,
		FrequencyPenalty: cfg.Options.FrequencyPenalty,
		PresencePenalty:  cfg.Options.PresencePenalty,
		RequestTimeout:   cfg.RequestTimeout,
		StreamTimeout:    cfg.StreamTimeout,
	}

	return openaicompat.NewChatModel(modelCfg)
}

// newOpenAIChatModel 创建 OpenAI ChatModel
func newOpenAIChatModel(ctx context.Context, cfg *config.AIConfig) (model.BaseChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}

	// Base URL (用于代理或兼容 API)
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}

	applyOpenAIOptions(modelCfg, &cfg.Options)

	return openai.NewChatModel(ctx, modelCfg)
}

// newAzureChatModel 创建 Azure OpenAI ChatModel
func newAzureChatModel(ctx context.Context, cfg *config.AIConfig) (model.BaseChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		ByAzure: true,
	}

	applyOpenAIOptions(modelCfg, &cfg.Options)

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, cfg *config.AIConfig) (model.BaseChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		modelCfg.MaxTokens = &cfg.Options.MaxTokens
	}
	if cfg.Options.TopP != nil {
		topP := float32(*cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return arkext.NewChatModel(ctx, modelCfg)
}

func applyOpenAIOptions(modelCfg *openai.ChatModelConfig, opts *config.AIOptionsConfig) {
	if opts.Temperature > 0 {
		temp := float32(opts.Temperature)
		modelCfg.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		modelCfg.MaxTokens = &opts.MaxTokens
	}
	if opts.TopP != nil {
		topP := float32(*opts.TopP)
		modelCfg.TopP = &topP
	}
}
