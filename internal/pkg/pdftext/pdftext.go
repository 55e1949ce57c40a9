// Package pdftext extracts plain text and the page count from PDF bytes.
package pdftext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docagent/server/internal/config"
)

// Result is what an extraction yields.
type Result struct {
	Text      string
	PageCount int
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}

// New returns the extractor selected by cfg.Engine, bounded by cfg.TimeoutSeconds.
func New(cfg config.ExtractionConfig) (Extractor, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Engine {
	case config.ExtractionNative:
		return &Native{Timeout: timeout}, nil
	case config.ExtractionPdftotext:
		return NewPoppler(cfg.PdftotextPath, cfg.PdfinfoPath, timeout, nil), nil
	}
	return nil, fmt.Errorf("unknown extraction engine %q", cfg.Engine)
}

// joinPages trims every page and separates non-empty pages by a blank line.
func joinPages(pages []string) string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\r\n", "\n"))
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
