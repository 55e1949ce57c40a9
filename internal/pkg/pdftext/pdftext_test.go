package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/docagent/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal uncompressed PDF with one text line per page.
func buildPDF(pages ...string) []byte {
	var objects []string
	kids := ""
	fontObj := 3 + 2*len(pages)
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)),
	)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>", 4+2*i, fontObj),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestNative_ExtractsTextAndPages(t *testing.T) {
	res, err := (&Native{}).Extract(context.Background(), buildPDF("Hello PDF", "Second page"))

	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)
	assert.Equal(t, "Hello PDF\n\nSecond page", res.Text)
}

func TestNative_RejectsGarbage(t *testing.T) {
	_, err := (&Native{}).Extract(context.Background(), []byte("this is not a pdf at all"))
	assert.Error(t, err)

	_, err = (&Native{}).Extract(context.Background(), nil)
	assert.Error(t, err)
}

type fakeRunner struct {
	outputs map[string][]byte
	err     error
	calls   [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs[name], nil
}

func TestPoppler_ParsesOutputs(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"pdfinfo":   []byte("Title:   demo\nPages:          3\nEncrypted: no\n"),
		"pdftotext": []byte("Page one\r\n\fPage two\n\f\f"),
	}}
	p := NewPoppler("pdftotext", "pdfinfo", 0, runner)

	res, err := p.Extract(context.Background(), []byte("%PDF-1.4"))

	require.NoError(t, err)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, "Page one\n\nPage two", res.Text)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, "-", runner.calls[1][len(runner.calls[1])-1])
	assert.Equal(t, ".pdf", filepath.Ext(runner.calls[0][1]))
}

func TestPoppler_CommandFailure(t *testing.T) {
	p := NewPoppler("pdftotext", "pdfinfo", 0, &fakeRunner{err: errors.New("exit status 1")})

	_, err := p.Extract(context.Background(), []byte("%PDF-1.4"))

	assert.EqualError(t, err, "exit status 1")
}

func TestParsePageCount_Missing(t *testing.T) {
	_, err := parsePageCount([]byte("Title: x\n"))
	assert.Error(t, err)
}

func TestNew_SelectsEngine(t *testing.T) {
	ex, err := New(config.ExtractionConfig{Engine: config.ExtractionNative, TimeoutSeconds: 5})
	require.NoError(t, err)
	assert.IsType(t, &Native{}, ex)

	ex, err = New(config.ExtractionConfig{Engine: config.ExtractionPdftotext, PdftotextPath: "pdftotext", PdfinfoPath: "pdfinfo"})
	require.NoError(t, err)
	assert.IsType(t, &Poppler{}, ex)

	_, err = New(config.ExtractionConfig{Engine: "ocr"})
	assert.Error(t, err)
}
