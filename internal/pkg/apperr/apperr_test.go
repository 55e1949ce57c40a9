package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := NotFound("document not found")
	wrapped := fmt.Errorf("load document: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindValidation))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestUpstream_DoesNotDoubleWrap(t *testing.T) {
	first := Upstreamf("status %d", 502)
	second := Upstream(fmt.Errorf("chat: %w", first))

	assert.Equal(t, KindUpstream, KindOf(second))
	assert.Equal(t, "chat: AI service error: status 502", second.Error())
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Validation("only PDF files are supported"), "only PDF files are supported"},
		{"internal hides detail", Internal(errors.New("dial tcp 10.0.0.1:3306")), "internal server error"},
		{"untyped hides detail", errors.New("secret"), "internal server error"},
		{"extraction", Extraction(errors.New("bad xref")), "text extraction failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicMessage(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("eof")
	err := Extraction(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "text extraction failed: eof", err.Error())
}
