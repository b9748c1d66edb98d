package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloo-solutions/folio/internal/domain"
	"github.com/cloo-solutions/folio/internal/telemetry"
	"go.uber.org/zap"
)

// PromptBuilder builds grounded system prompts from a knowledge document.
type PromptBuilder interface {
	BuildPrompt(ctx context.Context, document, query string) (string, error)
	Profile(document string) domain.Profile
}

// ChatCompleter sends one system and one user message to a chat model.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// DocumentSource returns the current knowledge document.
type DocumentSource interface {
	Current() string
}

// ChatReply is the answer to a single chat message.
type ChatReply struct {
	Reply    string `json:"reply"`
	Grounded bool   `json:"grounded"`
}

// ChatService answers visitor messages with a model prompted by the
// knowledge corpus.
type ChatService struct {
	prompts  PromptBuilder
	chat     ChatCompleter
	document DocumentSource
	logger   *zap.Logger
}

// NewChatService creates a new ChatService. A nil chat completer makes
// every Reply fail with CONFIG_ERROR.
func NewChatService(prompts PromptBuilder, chat ChatCompleter, document DocumentSource, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		prompts:  prompts,
		chat:     chat,
		document: document,
		logger:   logger,
	}
}

// Reply answers message. When the grounded prompt cannot be built the model
// still answers, prompted only with the profile name and headline, and the
// reply is marked as not grounded.
func (s *ChatService) Reply(ctx context.Context, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if s.chat == nil {
		return nil, domain.ErrChatNotConfigured
	}

	ctx, span := telemetry.StartSpan(ctx, "ChatService.Reply", telemetry.SpanAttributes{
		Operation: "chat",
	})
	defer span.End()

	document := ""
	if s.document != nil {
		document = s.document.Current()
	}

	grounded := true
	systemPrompt, err := s.prompts.BuildPrompt(ctx, document, message)
	if err != nil {
		s.logger.Warn("grounded prompt unavailable, using fallback prompt", zap.Error(err))
		systemPrompt = FallbackPrompt(s.prompts.Profile(document))
		grounded = false
	}
	telemetry.SetTag(ctx, "chat.grounded", strconv.FormatBool(grounded))

	reply, err := s.chat.CompleteChat(ctx, systemPrompt, message)
	if err != nil {
		if !domain.HasCode(err, domain.ErrCodeProvider) {
			err = domain.NewProviderError("chat completion failed", err)
		}
		span.SetError(err)
		return nil, err
	}

	return &ChatReply{Reply: reply, Grounded: grounded}, nil
}

// FallbackPrompt is the system prompt used when the knowledge corpus is not
// available.
func FallbackPrompt(profile domain.Profile) string {
	subject := profile.Name
	if profile.Headline != "" {
		subject += ", " + profile.Headline
	}

	return "You are a conversational assistant.\n" +
		"INSTRUCTIONS:\n" +
		"- Explain that there is a temporary problem accessing the profile of " + subject + ".\n" +
		"- Answer politely and concisely.\n" +
		"- Use simple Markdown: bold for key ideas, short lists and links where useful.\n" +
		"- If you cannot answer, invite the visitor to leave a way to contact them.\n" +
		"- Do not make up facts."
}
