package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithPrefix(t *testing.T) {
	id := GenerateUUIDWithPrefix(UUID_PREFIX_SUBSCRIPTION)
	assert.True(t, strings.HasPrefix(id, "subs_"))
	assert.Len(t, id, len("subs_")+26)
	assert.NotEqual(t, id, GenerateUUIDWithPrefix(UUID_PREFIX_SUBSCRIPTION))
	assert.Len(t, GenerateUUIDWithPrefix(""), 26)
}

func TestGenerateShortIDWithPrefix(t *testing.T) {
	key := GenerateShortIDWithPrefix(SHORT_ID_PREFIX_SUBSCRIPTION_KEY)
	assert.True(t, strings.HasPrefix(key, "SUBSCR_"))
	assert.LessOrEqual(t, len(key), 16)
	assert.Empty(t, GenerateShortIDWithPrefix(strings.Repeat("X", 16)))
}
