package proctitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	assert.Equal(t, "docagent", Title("docagent", "production"))
	assert.Equal(t, "docagent", Title(" docagent ", ""))
	assert.Equal(t, "docagent-develo", Title("docagent", "development"))
}
