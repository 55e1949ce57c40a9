// Package chat runs conversational turns about an uploaded document.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/aiclient"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/repository"
	"go.uber.org/zap"
)

// DocumentResolver loads a document scoped to its owner, failing with a
// not-found error for both a wrong id and a wrong owner.
type DocumentResolver interface {
	Get(ctx context.Context, id, owner string) (*models.Document, error)
}

type Service struct {
	docs     DocumentResolver
	messages repository.ChatMessageRepository
	builder  *ContextBuilder
	ai       aiclient.Client
	clock    *msClock
	logger   *zap.Logger
}

type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("ChatService")
		}
	}
}

func NewService(docs DocumentResolver, messages repository.ChatMessageRepository, builder *ContextBuilder, ai aiclient.Client, opts ...ServiceOption) *Service {
	s := &Service{
		docs:     docs,
		messages: messages,
		builder:  builder,
		ai:       ai,
		clock:    messageClock,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SendMessage runs one turn and returns the assistant's reply. The user
// message stays persisted when the model call fails.
func (s *Service) SendMessage(ctx context.Context, documentID, message, selectedText, owner string) (string, error) {
	msgs, err := s.begin(ctx, documentID, message, selectedText, owner)
	if err != nil {
		return "", err
	}

	reply, err := s.ai.Chat(ctx, msgs)
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("document", documentID), zap.Error(err))
		return "", apperr.Upstream(err)
	}

	if err := s.saveReply(ctx, documentID, owner, reply); err != nil {
		return "", err
	}
	s.logger.Info("chat reply", zap.String("document", documentID), zap.Int("length", len(reply)))
	return reply, nil
}

// StreamMessage is SendMessage over a streaming completion. Chunks reach sink
// as they arrive; the full reply is persisted before sink.OnComplete.
// Precondition failures are returned without touching sink.
func (s *Service) StreamMessage(ctx context.Context, documentID, message, selectedText, owner string, sink aiclient.Sink) error {
	msgs, err := s.begin(ctx, documentID, message, selectedText, owner)
	if err != nil {
		return err
	}

	var reply strings.Builder
	s.ai.ChatStream(ctx, msgs, aiclient.SinkFuncs{
		Chunk: func(text string) {
			reply.WriteString(text)
			sink.OnChunk(text)
		},
		Complete: func() {
			if reply.Len() > 0 {
				if err := s.saveReply(context.WithoutCancel(ctx), documentID, owner, reply.String()); err != nil {
					sink.OnError(err)
					return
				}
			}
			sink.OnComplete()
		},
		Error: func(err error) {
			s.logger.Warn("chat stream failed", zap.String("document", documentID), zap.Error(err))
			sink.OnError(apperr.Upstream(err))
		},
	})
	return nil
}

// begin validates the turn, builds the model context and persists the user
// message. History is read before the insert so the new message appears once.
func (s *Service) begin(ctx context.Context, documentID, message, selectedText, owner string) ([]aiclient.Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperr.Validation("message is required")
	}
	doc, err := s.docs.Get(ctx, documentID, owner)
	if err != nil {
		return nil, err
	}

	msgs, err := s.builder.Build(ctx, doc, owner, selectedText, message)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.ChatMessage{
		DocumentID: doc.ID,
		Owner:      owner,
		Role:       models.RoleUser,
		Content:    message,
	}
	if strings.TrimSpace(selectedText) != "" {
		user.SelectedText = &selectedText
	}
	user.CreatedAt = s.clock.Next()
	if err := s.messages.Create(ctx, user); err != nil {
		return nil, apperr.Internal(fmt.Errorf("save user message: %w", err))
	}
	return msgs, nil
}

func (s *Service) saveReply(ctx context.Context, documentID, owner, reply string) error {
	msg := &models.ChatMessage{
		DocumentID: documentID,
		Owner:      owner,
		Role:       models.RoleAssistant,
		Content:    reply,
	}
	msg.CreatedAt = s.clock.Next()
	if err := s.messages.Create(ctx, msg); err != nil {
		return apperr.Internal(fmt.Errorf("save assistant message: %w", err))
	}
	return nil
}

// History returns every message of the conversation, oldest first.
func (s *Service) History(ctx context.Context, documentID, owner string) ([]models.ChatMessage, error) {
	if _, err := s.docs.Get(ctx, documentID, owner); err != nil {
		return nil, err
	}
	items, err := s.messages.List(ctx, documentID, owner)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list messages: %w", err))
	}
	return items, nil
}

// Clear deletes the conversation and reports how many messages were removed.
func (s *Service) Clear(ctx context.Context, documentID, owner string) (int64, error) {
	if _, err := s.docs.Get(ctx, documentID, owner); err != nil {
		return 0, err
	}
	n, err := s.messages.DeleteAll(ctx, documentID, owner)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("clear messages: %w", err))
	}
	s.logger.Info("chat history cleared", zap.String("document", documentID), zap.Int64("deleted", n))
	return n, nil
}
