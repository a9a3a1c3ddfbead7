package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("query", "What's the weather in Paris tomorrow?")
	b := Fingerprint("query", "  what's the weather in paris tomorrow?\n")
	c := Fingerprint("query", "What's the weather in Berlin tomorrow?")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "query:"))
	assert.True(t, strings.HasSuffix(a, ":"+Tag()))
	assert.Len(t, strings.Split(a, ":")[1], 16)
}
