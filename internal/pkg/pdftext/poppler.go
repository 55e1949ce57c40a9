package pdftext

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Poppler shells out to pdfinfo and pdftotext.
type Poppler struct {
	pdftotext string
	pdfinfo   string
	timeout   time.Duration
	runner    CommandRunner
}

func NewPoppler(pdftotext, pdfinfo string, timeout time.Duration, runner CommandRunner) *Poppler {
	if runner == nil {
		runner = execRunner{}
	}
	return &Poppler{pdftotext: pdftotext, pdfinfo: pdfinfo, timeout: timeout, runner: runner}
}

func (p *Poppler) Extract(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty pdf")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp("", "docagent-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp pdf: %w", err)
	}

	info, err := p.runner.Run(ctx, p.pdfinfo, tmp.Name())
	if err != nil {
		return Result{}, err
	}
	pages, err := parsePageCount(info)
	if err != nil {
		return Result{}, err
	}

	out, err := p.runner.Run(ctx, p.pdftotext, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return Result{}, err
	}
	// pdftotext ends every page with a form feed.
	text := joinPages(strings.Split(string(out), "\f"))
	return Result{Text: text, PageCount: pages}, nil
}

func parsePageCount(info []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(info))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("parse pdfinfo pages %q: %w", value, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo output has no Pages line")
}
