package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketID(t *testing.T) {
	pattern := regexp.MustCompile(`^WHY-\d{8}-[A-Z0-9]{6}$`)

	t.Run("matches expected shape", func(t *testing.T) {
		id := NewTicketID()
		require.Regexp(t, pattern, id)
	})

	t.Run("unique within the same millisecond", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			id := NewTicketID()
			_, dup := seen[id]
			require.False(t, dup, "duplicate ticket id %s", id)
			seen[id] = struct{}{}
		}
	})
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(MessageTypeIdentified))
	assert.True(t, ValidType(MessageTypeAnonymous))
	assert.False(t, ValidType("banana"))
	assert.False(t, ValidType(""))
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, ValidCategory(c))
	}
	assert.False(t, ValidCategory("reclamo"))
	assert.False(t, ValidCategory(""))
}

func TestValidPriority(t *testing.T) {
	for _, p := range Priorities {
		assert.True(t, ValidPriority(p))
	}
	assert.False(t, ValidPriority("critica"))
}

func TestIdentified(t *testing.T) {
	assert.True(t, Message{Type: MessageTypeIdentified}.Identified())
	assert.False(t, Message{Type: MessageTypeAnonymous}.Identified())
}
