package aiclient

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docagent/server/internal/pkg/apperr"
	"go.uber.org/zap"
)

const maxFrameBytes = 1 << 20

type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error json.RawMessage `json:"error"`
}

// consumeEventStream reads "data:" frames until [DONE], EOF, an error frame or a read failure.
func consumeEventStream(body io.Reader, sink Sink, logger *zap.Logger) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			sink.OnComplete()
			return
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			logger.Warn("skip malformed stream frame", zap.String("data", truncateText(data, 200)), zap.Error(err))
			continue
		}
		if msg, ok := frameError(frame.Error); ok {
			sink.OnError(apperr.Upstreamf("stream error frame: %s", msg))
			return
		}
		if len(frame.Choices) == 0 {
			continue
		}
		if content := frame.Choices[0].Delta.Content; strings.TrimSpace(content) != "" {
			sink.OnChunk(content)
		}
	}

	if err := scanner.Err(); err != nil {
		sink.OnError(apperr.Upstream(fmt.Errorf("read stream: %w", err)))
		return
	}
	sink.OnComplete()
}

// frameError extracts a message from either {"error":"..."} or {"error":{"message":"..."}}.
func frameError(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return string(raw), true
}

func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
