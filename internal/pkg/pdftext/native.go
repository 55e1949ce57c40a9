package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"
)

// Native parses PDFs in-process.
type Native struct {
	Timeout time.Duration
}

func (n *Native) Extract(ctx context.Context, data []byte) (res Result, err error) {
	if len(data) == 0 {
		return Result{}, errors.New("empty pdf")
	}
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	count := reader.NumPage()
	if count < 1 {
		return Result{}, errors.New("pdf has no pages")
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return Result{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return Result{Text: joinPages(pages), PageCount: count}, nil
}
