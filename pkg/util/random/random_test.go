package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDFillsColumn(t *testing.T) {
	id := NewID("U")
	assert.Len(t, id, 20)
	assert.True(t, strings.HasPrefix(id, "U"))
	assert.NotEqual(t, id, NewID("U"))
}
