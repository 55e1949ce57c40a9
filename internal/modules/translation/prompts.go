package translation

import (
	"strings"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/aiclient"
)

const translatorPrompt = "You are a professional translation assistant, skilled at translating between all languages."

func styleRequirement(style models.TranslationStyle) string {
	switch style {
	case models.StyleAccurate:
		return "Requirements: accurate and professional, suitable for technical documents."
	case models.StyleFluent:
		return "Requirements: fluent and natural, suitable for general documents."
	case models.StyleConcise:
		return "Requirements: concise and refined, suitable for quick reading."
	}
	return ""
}

func translateMessages(text, sourceLang, targetLang string, style models.TranslationStyle) []aiclient.Message {
	source := sourceLang
	if source == "" || source == models.SourceLangAuto {
		source = "the original language"
	}

	var b strings.Builder
	b.WriteString("Please translate the following text from ")
	b.WriteString(source)
	b.WriteString(" into ")
	b.WriteString(targetLang)
	b.WriteString(".\n\n")
	if req := styleRequirement(style); req != "" {
		b.WriteString(req)
		b.WriteString("\n\n")
	}
	b.WriteString("Text to translate:\n")
	b.WriteString(text)

	return []aiclient.Message{
		aiclient.System(translatorPrompt),
		aiclient.User(b.String()),
	}
}
