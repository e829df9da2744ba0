package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/config"
	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
)

// Service 使用大模型回答未命中关键词的闲聊。
type Service struct {
	chatModel    model.ChatModel
	catalog      *i18n.Catalog
	historyLimit int
	chain        compose.Runnable[map[string]any, *schema.Message]
	log          *zap.Logger
}

// NewService creates the companion backed by the configured Ark model.
func NewService(ctx context.Context, cfg config.AIConfig, catalog *i18n.Catalog, log *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, catalog, cfg.HistoryLimit, log)
}

// NewServiceWithModel compiles the prompt chain around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, catalog *i18n.Catalog, historyLimit int, log *zap.Logger) (*Service, error) {
	if historyLimit < 1 {
		historyLimit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel:    chatModel,
		catalog:      catalog,
		historyLimit: historyLimit,
		chain:        runnable,
		log:          log.Named("ai"),
	}, nil
}

// Chat answers text in the session language.
func (s *Service) Chat(ctx context.Context, locale i18n.Locale, history []chat.Message, text string) (string, error) {
	input := map[string]any{
		"system":  s.catalog.Get(locale).CompanionPrompt,
		"history": s.buildHistoryMessages(history),
		"query":   text,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("empty AI response")
	}

	s.log.Debug("companion reply generated", zap.String("locale", string(locale)), zap.Int("length", len(response.Content)))
	return strings.TrimSpace(response.Content), nil
}

// buildHistoryMessages keeps the most recent turns, oldest first.
func (s *Service) buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > s.historyLimit {
		startIdx = len(messages) - s.historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Type {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
