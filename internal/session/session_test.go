package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenFormat(t *testing.T) {
	tok := NewToken(42)
	assert.True(t, strings.HasPrefix(tok, "attendance-42-"))

	parts := strings.SplitN(tok, "-", 4)
	require.Len(t, parts, 4)
	assert.NotEmpty(t, parts[3], "random component present")
}

func TestNewTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken(1)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestNewPresenceListDedupes(t *testing.T) {
	p := NewPresenceList([]string{"A@x.com", "b@x.com", "a@x.com"})
	assert.Equal(t, PresenceList{
		{Email: "a@x.com"},
		{Email: "b@x.com"},
	}, p)
}

func TestPresenceMark(t *testing.T) {
	p := NewPresenceList([]string{"a@x.com"})

	changed, enrolled := p.Mark("A@X.com")
	assert.True(t, changed)
	assert.True(t, enrolled)

	changed, enrolled = p.Mark("a@x.com")
	assert.False(t, changed, "second mark is a no-op")
	assert.True(t, enrolled)

	_, enrolled = p.Mark("ghost@x.com")
	assert.False(t, enrolled)
}
