package chat

import (
	"fmt"
	"strings"
)

const (
	assistantRole = "You are an intelligent document reading assistant that helps users understand and analyze document content."
	answerGuide   = "Answer the user's question accurately and helpfully based on the document information above."
	truncMarker   = "..."
)

func documentPrompt(fileName string, pageCount int) string {
	var b strings.Builder
	b.WriteString(assistantRole)
	b.WriteString("\n\nCurrent document info:\n")
	fmt.Fprintf(&b, "- File name: %s\n", fileName)
	fmt.Fprintf(&b, "- Pages: %d\n\n", pageCount)
	b.WriteString(answerGuide)
	return b.String()
}

func selectionPrompt(selected string) string {
	return "Text selected by the user:\n```\n" + selected + "\n```\n\nFocus your answer on the selected text."
}

func summaryPrompt(excerpt string) string {
	return "Document summary:\n```\n" + excerpt + "\n```"
}

// excerpt keeps the first limit runes of text, marking a cut with "...".
func excerpt(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + truncMarker
}
