package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/aiclient"
	"github.com/docagent/server/internal/repository"
)

const (
	DefaultHistoryLimit = 10
	DefaultSummaryChars = 2000
)

// ContextBuilder assembles the message list sent to the model for one turn:
// the document system prompt, then either the user's selection or a summary
// excerpt, then recent history oldest first, then the new message.
type ContextBuilder struct {
	messages     repository.ChatMessageRepository
	historyLimit int
	summaryChars int
}

func NewContextBuilder(messages repository.ChatMessageRepository, historyLimit, summaryChars int) *ContextBuilder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if summaryChars <= 0 {
		summaryChars = DefaultSummaryChars
	}
	return &ContextBuilder{messages: messages, historyLimit: historyLimit, summaryChars: summaryChars}
}

func (b *ContextBuilder) Build(ctx context.Context, doc *models.Document, owner, selectedText, newUserMessage string) ([]aiclient.Message, error) {
	out := []aiclient.Message{aiclient.System(documentPrompt(doc.FileName, doc.PageCount))}

	switch {
	case strings.TrimSpace(selectedText) != "":
		out = append(out, aiclient.System(selectionPrompt(selectedText)))
	case strings.TrimSpace(doc.Text) != "":
		out = append(out, aiclient.System(summaryPrompt(excerpt(doc.Text, b.summaryChars))))
	}

	recent, err := b.messages.Recent(ctx, doc.ID, owner, b.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent history: %w", err)
	}
	slices.Reverse(recent)
	for _, m := range recent {
		out = append(out, toAIMessage(m))
	}

	return append(out, aiclient.User(newUserMessage)), nil
}

func toAIMessage(m models.ChatMessage) aiclient.Message {
	switch m.Role {
	case models.RoleAssistant:
		return aiclient.Assistant(m.Content)
	case models.RoleUser:
		return aiclient.User(m.Content)
	}
	return aiclient.User(m.Content)
}
